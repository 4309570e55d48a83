package agent

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"imoveisdf/server/internal/models"
	"imoveisdf/server/internal/whatsapp"
)

// PriceUpdateReport summarizes a price change and, when the change is a
// reduction, the watcher fan-out that followed.
type PriceUpdateReport struct {
	PropertyID        string                     `json:"property_id"`
	OldPrice          int                        `json:"old_price"`
	NewPrice          int                        `json:"new_price"`
	PriceReduced      bool                       `json:"price_reduced"`
	Savings           int                        `json:"savings,omitempty"`
	TotalAlerts       int                        `json:"total_alerts"`
	NotificationsSent int                        `json:"notifications_sent"`
	Results           []*whatsapp.DeliveryResult `json:"results,omitempty"`
}

// UpdatePrice persists a new price for the listing. On a reduction it keeps
// the previous price, stamps the reduction time, and notifies every active
// watcher of that listing.
func (s *Service) UpdatePrice(ctx context.Context, propertyID string, newPrice int) (*PriceUpdateReport, error) {
	if newPrice <= 0 {
		return nil, ErrInvalidPrice
	}

	property, err := s.db.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}

	oldPrice := property.Price
	reduced := newPrice < oldPrice

	fields := map[string]interface{}{"price": newPrice}
	if reduced {
		fields["previous_price"] = oldPrice
		fields["price_reduced"] = true
		fields["price_reduced_at"] = s.now()
	}
	if err := s.db.UpdatePropertyFields(propertyID, fields); err != nil {
		return nil, err
	}
	property.Price = newPrice

	report := &PriceUpdateReport{
		PropertyID:   propertyID,
		OldPrice:     oldPrice,
		NewPrice:     newPrice,
		PriceReduced: reduced,
	}
	if !reduced {
		return report, nil
	}
	report.Savings = oldPrice - newPrice

	fanout, err := s.NotifyPriceDrop(ctx, property, oldPrice, newPrice)
	if err != nil {
		return report, err
	}
	report.TotalAlerts = fanout.TotalAlerts
	report.NotificationsSent = fanout.NotificationsSent
	report.Results = fanout.Results
	return report, nil
}

// PriceDropReport is the aggregate outcome of one watcher fan-out.
type PriceDropReport struct {
	TotalAlerts       int                        `json:"total_alerts"`
	NotificationsSent int                        `json:"notifications_sent"`
	Results           []*whatsapp.DeliveryResult `json:"results"`
}

// NotifyPriceDrop fans the price-drop message out to every active watcher.
// Watcher lists are small and independent, so sends run concurrently,
// unlike the sequential bulk matching loop. A send failure only costs that
// watcher; the rest proceed.
func (s *Service) NotifyPriceDrop(ctx context.Context, property *models.Property, oldPrice, newPrice int) (*PriceDropReport, error) {
	alerts, err := s.db.FindActivePriceAlerts(property.ID)
	if err != nil {
		return nil, err
	}

	report := &PriceDropReport{
		TotalAlerts: len(alerts),
		Results:     make([]*whatsapp.DeliveryResult, len(alerts)),
	}
	if len(alerts) == 0 {
		return report, nil
	}

	if !s.dispatcher.Configured() {
		s.logger.WithField("property_id", property.ID).Error("WhatsApp gateway not configured, skipping price-drop alerts")
		return report, whatsapp.ErrNotConfigured
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, alert := range alerts {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, alert *models.PriceAlert) {
			defer wg.Done()

			result, err := s.dispatcher.DispatchPriceDrop(ctx, alert, property, oldPrice, newPrice)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"property_id": property.ID,
					"phone":       alert.Phone,
				}).Error("Failed to send price-drop alert")
			}

			mu.Lock()
			report.Results[i] = result
			if result != nil && result.Success {
				report.NotificationsSent++
			}
			mu.Unlock()
		}(i, alert)
	}
	wg.Wait()

	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"alerts":      report.TotalAlerts,
		"sent":        report.NotificationsSent,
	}).Info("Finished price-drop fan-out")
	return report, nil
}
