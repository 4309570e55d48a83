package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// brazilBounds is the accepted coordinate window. Candidates outside it are
// discarded even when the geocoding service returns them with confidence.
var brazilBounds = orb.Bound{
	Min: orb.Point{-73.99, -33.75},
	Max: orb.Point{-28.84, 5.27},
}

// InBrazil reports whether a latitude/longitude pair falls inside the
// Brazil bounding box.
func InBrazil(lat, lon float64) bool {
	return brazilBounds.Contains(orb.Point{lon, lat})
}

// Nominatim turns a structured address into coordinates, trying three
// decreasing levels of specificity. Each attempt is one external call; a
// fixed delay separates attempts so the public endpoint is not hammered.
type Nominatim struct {
	logger    *logrus.Logger
	client    *http.Client
	baseURL   string
	userAgent string
	delay     time.Duration
}

func NewNominatim(logger *logrus.Logger, timeout, delay time.Duration) *Nominatim {
	return &Nominatim{
		logger:    logger,
		client:    &http.Client{Timeout: timeout},
		baseURL:   "https://nominatim.openstreetmap.org",
		userAgent: "ImoveisDF/1.0 (contato@imoveisdf.com.br)",
		delay:     delay,
	}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns the first in-bounds candidate for the address. Queries go
// from full street address down to city and state alone; the first usable
// result wins and later, less specific queries are never tried.
func (n *Nominatim) Resolve(ctx context.Context, addr *Address) (float64, float64, error) {
	queries := []string{
		fmt.Sprintf("%s, %s, %s, %s, Brazil", addr.Street, addr.District, addr.City, addr.State),
		fmt.Sprintf("%s, %s, %s, Brazil", addr.Street, addr.City, addr.State),
		fmt.Sprintf("%s, %s, Brazil", addr.City, addr.State),
	}

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		lat, lon, ok := n.attempt(ctx, query, i+1)
		if ok {
			return lat, lon, nil
		}

		// Wait before the next, less specific attempt. No delay after the last.
		if i < len(queries)-1 {
			select {
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			case <-time.After(n.delay):
			}
		}
	}

	n.logger.WithFields(logrus.Fields{
		"city":  addr.City,
		"state": addr.State,
	}).Warn("No geocoding attempt produced usable coordinates")
	return 0, 0, fmt.Errorf("%w: %s/%s", ErrNoCoordinates, addr.City, addr.State)
}

func (n *Nominatim) attempt(ctx context.Context, query string, attempt int) (float64, float64, bool) {
	params := url.Values{
		"q":            []string{query},
		"format":       []string{"json"},
		"limit":        []string{"1"},
		"countrycodes": []string{"br"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search", nil)
	if err != nil {
		n.logger.WithError(err).Error("Failed to create geocoding request")
		return 0, 0, false
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.WithError(err).WithField("attempt", attempt).Warn("Geocoding request failed")
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"status":  resp.StatusCode,
		}).Warn("Geocoding request rejected")
		return 0, 0, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		n.logger.WithError(err).Warn("Failed to read geocoding response")
		return 0, 0, false
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		n.logger.WithError(err).Warn("Failed to parse geocoding response")
		return 0, 0, false
	}
	if len(result) == 0 {
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(result[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(result[0].Lon, 64)
	if errLat != nil || errLon != nil {
		n.logger.WithField("attempt", attempt).Warn("Geocoding returned malformed coordinates")
		return 0, 0, false
	}

	if !InBrazil(lat, lon) {
		n.logger.WithFields(logrus.Fields{
			"attempt":   attempt,
			"latitude":  lat,
			"longitude": lon,
		}).Warn("Candidate coordinates outside Brazil, discarding")
		return 0, 0, false
	}

	n.logger.WithFields(logrus.Fields{
		"attempt":   attempt,
		"latitude":  lat,
		"longitude": lon,
	}).Info("Successfully geocoded address")
	return lat, lon, true
}
