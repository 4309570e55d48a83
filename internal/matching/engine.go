package matching

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"imoveisdf/server/internal/models"
)

// Score weights. Price carries the largest weight; a lead with no price
// signal still has 70 points in reach and can clear the threshold.
const (
	ScorePrice     = 30
	ScoreCategory  = 25
	ScoreCity      = 20
	ScoreBedrooms  = 15
	ScoreBathrooms = 10

	// MatchThreshold is the minimum total score for a lead to qualify.
	MatchThreshold = 50

	// priceTolerance widens the denormalized original-interest price into an
	// acceptance band when the lead has no explicit range.
	priceTolerance = 0.20
)

// Match is one qualifying lead with its score and the human-readable
// reasons, in evaluation order, that go into the outbound message.
type Match struct {
	Lead    *models.Lead
	Score   int
	Reasons []string
}

// Engine scores leads against a property with one fixed, explainable
// formula. It holds no state beyond the logger.
type Engine struct {
	logger *logrus.Logger
}

func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{logger: logger}
}

// eligibleStatuses are the pipeline stages still worth contacting.
var eligibleStatuses = map[models.LeadStatus]bool{
	models.LeadStatusNew:        true,
	models.LeadStatusInterested: true,
	models.LeadStatusLost:       true,
	models.LeadStatusContacted:  true,
}

// Eligible reports whether a lead may be scored at all: opted in, reachable
// on WhatsApp, and in an active pipeline stage.
func Eligible(lead *models.Lead) bool {
	return lead.EnableMatching && lead.HasPhone() && eligibleStatuses[lead.Status]
}

// Match scores every eligible candidate against the property and returns the
// qualifying ones, highest score first. All qualifying leads are returned;
// volume is the dispatcher's problem.
func (e *Engine) Match(property *models.Property, candidates []*models.Lead) []Match {
	var matches []Match

	for _, lead := range candidates {
		if !Eligible(lead) {
			continue
		}

		score, reasons := e.Score(property, lead)
		if score < MatchThreshold {
			continue
		}

		matches = append(matches, Match{Lead: lead, Score: score, Reasons: reasons})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	e.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"candidates":  len(candidates),
		"matches":     len(matches),
	}).Info("Scored lead pool against property")
	return matches
}

// Score computes the compatibility total and the reasons for each awarded
// component, in evaluation order.
func (e *Engine) Score(property *models.Property, lead *models.Lead) (int, []string) {
	score := 0
	var reasons []string

	if ok, reason := priceCompatible(property, lead); ok {
		score += ScorePrice
		reasons = append(reasons, reason)
	}

	if lead.PreferredCategory != nil && *lead.PreferredCategory == property.Category {
		score += ScoreCategory
		reasons = append(reasons, fmt.Sprintf("Categoria: %s", property.Category))
	}

	if lead.PreferredCity != nil && *lead.PreferredCity == property.City {
		score += ScoreCity
		reasons = append(reasons, fmt.Sprintf("Cidade: %s", property.City))
	}

	if lead.PreferredBedrooms != nil && property.Bedrooms != nil &&
		abs(*lead.PreferredBedrooms-*property.Bedrooms) <= 1 {
		score += ScoreBedrooms
		reasons = append(reasons, fmt.Sprintf("Quartos: %d", *property.Bedrooms))
	}

	if lead.PreferredBathrooms != nil && property.Bathrooms != nil &&
		abs(*lead.PreferredBathrooms-*property.Bathrooms) <= 1 {
		score += ScoreBathrooms
		reasons = append(reasons, fmt.Sprintf("Banheiros: %d", *property.Bathrooms))
	}

	return score, reasons
}

// priceCompatible awards the price component. An explicit band is checked
// first; failing that, the price of the listing that originally interested
// the lead is widened by ±20%. A lead with neither signal gets no points.
func priceCompatible(property *models.Property, lead *models.Lead) (bool, string) {
	price := property.Price

	if lead.PreferredPriceMin != nil && lead.PreferredPriceMax != nil &&
		price >= *lead.PreferredPriceMin && price <= *lead.PreferredPriceMax {
		return true, fmt.Sprintf("Preço na faixa: R$ %s", models.FormatPrice(price))
	}

	// Outside (or without) an explicit band, fall back to the original
	// interest price widened by the tolerance.
	if lead.PropertyPrice != nil {
		tolerance := int(float64(*lead.PropertyPrice) * priceTolerance)
		if price >= *lead.PropertyPrice-tolerance && price <= *lead.PropertyPrice+tolerance {
			return true, "Preço similar ao interesse anterior (±20%)"
		}
	}

	return false, ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
