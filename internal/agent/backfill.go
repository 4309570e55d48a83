package agent

import (
	"context"

	"github.com/sirupsen/logrus"
)

// BackfillReport summarizes one coordinate backfill run.
type BackfillReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// BackfillCoordinates walks every listing that has a postal code but no GPS
// position and resolves it. Failures are counted and skipped; a rerun picks
// them up once the upstream directory knows the code.
func (s *Service) BackfillCoordinates(ctx context.Context) (*BackfillReport, error) {
	properties, err := s.db.PropertiesMissingCoordinates()
	if err != nil {
		return nil, err
	}

	report := &BackfillReport{Scanned: len(properties)}

	for _, property := range properties {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := s.geocoder.Resolve(ctx, *property.PostalCode)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"property_id": property.ID,
				"postal_code": *property.PostalCode,
			}).Warn("Backfill resolution failed")
			report.Failed++
			continue
		}

		if err := s.db.UpdatePropertyFields(property.ID, map[string]interface{}{
			"latitude":  result.Latitude,
			"longitude": result.Longitude,
		}); err != nil {
			s.logger.WithError(err).WithField("property_id", property.ID).Error("Failed to store coordinates")
			report.Failed++
			continue
		}
		report.Updated++
	}

	s.logger.WithFields(logrus.Fields{
		"scanned": report.Scanned,
		"updated": report.Updated,
		"failed":  report.Failed,
	}).Info("Finished coordinate backfill")
	return report, nil
}
