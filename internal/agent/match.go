package agent

import (
	"context"

	"github.com/sirupsen/logrus"

	"imoveisdf/server/internal/models"
	"imoveisdf/server/internal/whatsapp"
)

// MatchDetail is the per-lead outcome included in a match report.
type MatchDetail struct {
	LeadName     string   `json:"lead_name"`
	LeadPhone    string   `json:"lead_phone"`
	MatchScore   int      `json:"match_score"`
	MatchReasons []string `json:"match_reasons"`
	Sent         bool     `json:"sent"`
	Error        string   `json:"error,omitempty"`
}

// MatchReport summarizes one property-to-leads run.
type MatchReport struct {
	PropertyID        string        `json:"property_id"`
	PropertyTitle     string        `json:"property_title"`
	MatchesFound      int           `json:"matches_found"`
	NotificationsSent int           `json:"notifications_sent"`
	Details           []MatchDetail `json:"details"`
}

// MatchPropertyToLeads scores the eligible lead pool against one property
// and notifies every qualifying lead, one send at a time. Sends are
// deliberately sequential: it keeps the outbound gateway within its rate
// limit and the message log ordering deterministic. A cancelled context
// stops before the next send; unprocessed leads stay untouched and a rerun
// picks them up.
func (s *Service) MatchPropertyToLeads(ctx context.Context, propertyID string) (*MatchReport, error) {
	property, err := s.db.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}

	s.backfillCoordinates(ctx, property)

	candidates, err := s.db.FindMatchCandidates(property)
	if err != nil {
		return nil, err
	}

	matches := s.engine.Match(property, candidates)

	report := &MatchReport{
		PropertyID:    property.ID,
		PropertyTitle: property.Title,
		MatchesFound:  len(matches),
		Details:       make([]MatchDetail, 0, len(matches)),
	}

	if len(matches) > 0 && !s.dispatcher.Configured() {
		s.logger.WithField("property_id", property.ID).Error("WhatsApp gateway not configured, skipping all sends")
		return report, whatsapp.ErrNotConfigured
	}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"property_id": property.ID,
				"remaining":   len(matches) - len(report.Details),
			}).Warn("Context cancelled, aborting remaining sends")
			return report, err
		}

		detail := MatchDetail{
			LeadName:     match.Lead.Name,
			MatchScore:   match.Score,
			MatchReasons: match.Reasons,
		}
		if match.Lead.Phone != nil {
			detail.LeadPhone = *match.Lead.Phone
		}

		result, err := s.dispatcher.DispatchMatch(ctx, match.Lead, property, match.Reasons)
		if err != nil {
			// Partial-failure semantics: log, record, keep going.
			s.logger.WithError(err).WithFields(logrus.Fields{
				"lead_id":     match.Lead.ID,
				"property_id": property.ID,
			}).Error("Failed to notify matched lead")
			detail.Error = err.Error()
		} else {
			detail.Sent = result.Success
			report.NotificationsSent++
		}
		report.Details = append(report.Details, detail)
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"matches":     report.MatchesFound,
		"sent":        report.NotificationsSent,
	}).Info("Finished lead matching run")
	return report, nil
}

// backfillCoordinates fills in the property position from its postal code
// when missing. A resolver failure leaves the stored coordinates untouched.
func (s *Service) backfillCoordinates(ctx context.Context, property *models.Property) {
	if property.HasCoordinates() || property.PostalCode == nil || *property.PostalCode == "" {
		return
	}

	result, err := s.geocoder.Resolve(ctx, *property.PostalCode)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"property_id": property.ID,
			"postal_code": *property.PostalCode,
		}).Warn("Coordinate backfill failed, keeping existing values")
		return
	}

	if err := s.db.UpdatePropertyFields(property.ID, map[string]interface{}{
		"latitude":  result.Latitude,
		"longitude": result.Longitude,
	}); err != nil {
		s.logger.WithError(err).WithField("property_id", property.ID).Error("Failed to store backfilled coordinates")
		return
	}

	property.Latitude = &result.Latitude
	property.Longitude = &result.Longitude
}

// SuggestionReport summarizes one lost-lead suggestions run.
type SuggestionReport struct {
	LeadID            string   `json:"lead_id"`
	SuggestionsFound  int      `json:"suggestions_found"`
	NotificationsSent int      `json:"notifications_sent"`
	Skipped           string   `json:"skipped,omitempty"`
	PropertyTitles    []string `json:"property_titles,omitempty"`
}

// MatchLeadToProperties inverts the relation: given one lead, find up to
// five of the newest available listings compatible with its preferences and
// send a single digest. The filter itself is the ranking; there is no
// secondary scoring here.
func (s *Service) MatchLeadToProperties(ctx context.Context, leadID string) (*SuggestionReport, error) {
	lead, err := s.db.GetLead(leadID)
	if err != nil {
		return nil, err
	}

	report := &SuggestionReport{LeadID: lead.ID}

	if !lead.EnableMatching {
		report.Skipped = "lead opted out of suggestions"
		return report, nil
	}
	if !lead.HasPhone() {
		report.Skipped = "lead has no phone number"
		return report, nil
	}

	properties, err := s.db.FindSuggestions(lead, 5)
	if err != nil {
		return nil, err
	}
	report.SuggestionsFound = len(properties)
	if len(properties) == 0 {
		return report, nil
	}

	if !s.dispatcher.Configured() {
		s.logger.WithField("lead_id", lead.ID).Error("WhatsApp gateway not configured, skipping suggestions send")
		return report, whatsapp.ErrNotConfigured
	}

	for _, p := range properties {
		report.PropertyTitles = append(report.PropertyTitles, p.Title)
	}

	agentStatus := "suggestions_sent"
	_, sendErr := s.dispatcher.DispatchSuggestions(ctx, lead, properties)
	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("lead_id", lead.ID).Error("Failed to send suggestions digest")
		agentStatus = "suggestions_error"
	} else {
		report.NotificationsSent = 1
	}

	if err := s.db.UpdateLeadFields(lead.ID, map[string]interface{}{
		"agent_processed":    true,
		"agent_status":       agentStatus,
		"agent_processed_at": s.now(),
	}); err != nil {
		return report, err
	}

	return report, sendErr
}
