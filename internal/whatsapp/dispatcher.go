package whatsapp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"imoveisdf/server/internal/models"
)

// Recorder persists delivery outcomes. Satisfied by the database store.
type Recorder interface {
	AppendMessage(msg *models.WhatsAppMessage) error
	UpdateLeadFields(id string, fields map[string]interface{}) error
}

// DeliveryResult is the per-recipient outcome of one dispatch. Batch callers
// collect these and keep going; one bad phone number never aborts a fan-out.
type DeliveryResult struct {
	LeadName  string `json:"lead_name"`
	Phone     string `json:"phone"`
	MessageID string `json:"message_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher renders, sends and records one outbound notification at a time.
// A successful external send writes exactly one message row; a failed send
// writes nothing and leaves the lead untouched so the caller can retry.
type Dispatcher struct {
	logger    *logrus.Logger
	transport Transport
	store     Recorder
	siteURL   string
	now       func() time.Time
}

func NewDispatcher(logger *logrus.Logger, transport Transport, store Recorder, siteURL string) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		transport: transport,
		store:     store,
		siteURL:   siteURL,
		now:       time.Now,
	}
}

// Configured reports whether the underlying transport can send at all.
// Batch callers check this once, before the first send.
func (d *Dispatcher) Configured() bool {
	return d.transport.Configured()
}

// DispatchMatch notifies one matched lead about a property. On success the
// lead advances to contacted and is marked processed by the agent.
func (d *Dispatcher) DispatchMatch(ctx context.Context, lead *models.Lead, property *models.Property, reasons []string) (*DeliveryResult, error) {
	body := RenderPropertyMatch(lead, property, reasons, d.siteURL)

	result, err := d.send(ctx, lead.Phone, body, property.FirstImage())
	if err != nil {
		return d.failure(lead.Name, lead.Phone, err), err
	}

	if err := d.record(result, lead.Phone, body, models.SourcePropertyMatching, &property.ID, lead.Name); err != nil {
		return d.failure(lead.Name, lead.Phone, err), err
	}

	if err := d.store.UpdateLeadFields(lead.ID, map[string]interface{}{
		"agent_processed":    true,
		"agent_status":       "whatsapp_sent",
		"agent_processed_at": d.now(),
		"status":             models.LeadStatusContacted,
	}); err != nil {
		d.logger.WithError(err).WithField("lead_id", lead.ID).Error("Failed to update lead after send")
		return d.failure(lead.Name, lead.Phone, err), err
	}

	d.logger.WithFields(logrus.Fields{
		"lead_id":     lead.ID,
		"property_id": property.ID,
		"message_id":  result.ID,
	}).Info("Match notification delivered")
	return d.success(lead, result), nil
}

// DispatchSuggestions sends the alternatives digest to one lead. Lead state
// is the caller's to update, since the error path mutates it too.
func (d *Dispatcher) DispatchSuggestions(ctx context.Context, lead *models.Lead, properties []*models.Property) (*DeliveryResult, error) {
	body := RenderSuggestions(lead, properties, d.siteURL)

	result, err := d.send(ctx, lead.Phone, body, "")
	if err != nil {
		return d.failure(lead.Name, lead.Phone, err), err
	}

	if err := d.record(result, lead.Phone, body, models.SourceLeadSuggestions, nil, lead.Name); err != nil {
		return d.failure(lead.Name, lead.Phone, err), err
	}

	return d.success(lead, result), nil
}

// DispatchPriceDrop notifies one price-alert watcher. Watchers are not
// leads, so nothing beyond the message row is written.
func (d *Dispatcher) DispatchPriceDrop(ctx context.Context, alert *models.PriceAlert, property *models.Property, oldPrice, newPrice int) (*DeliveryResult, error) {
	body := RenderPriceDrop(alert.Name, property, oldPrice, newPrice, d.siteURL)
	phone := alert.Phone

	result, err := d.send(ctx, &phone, body, "")
	if err != nil {
		return d.failure(alert.Name, &phone, err), err
	}

	if err := d.record(result, &phone, body, models.SourcePriceAlert, &property.ID, alert.Name); err != nil {
		return d.failure(alert.Name, &phone, err), err
	}

	return &DeliveryResult{
		LeadName:  alert.Name,
		Phone:     NormalizePhone(phone),
		MessageID: result.ID,
		Success:   true,
	}, nil
}

// send normalizes the phone and picks the media shape: image with caption
// when the listing has a cover image, plain text otherwise.
func (d *Dispatcher) send(ctx context.Context, phone *string, body, imageURL string) (*SendResult, error) {
	if !d.transport.Configured() {
		return nil, ErrNotConfigured
	}
	if phone == nil || *phone == "" {
		return nil, fmt.Errorf("recipient has no phone number")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	to := NormalizePhone(*phone)
	if imageURL != "" {
		return d.transport.SendImage(ctx, to, imageURL, body)
	}
	return d.transport.SendText(ctx, to, body)
}

func (d *Dispatcher) record(result *SendResult, phone *string, body string, source models.MessageSource, propertyID *string, contactName string) error {
	messageID := result.ID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	msg := &models.WhatsAppMessage{
		MessageID:   messageID,
		From:        d.transport.InstanceID(),
		To:          NormalizePhone(*phone),
		Body:        body,
		Type:        "text",
		Timestamp:   d.now(),
		FromMe:      true,
		Status:      models.MessageSent,
		Source:      source,
		PropertyID:  propertyID,
		ContactName: &contactName,
	}
	if err := d.store.AppendMessage(msg); err != nil {
		d.logger.WithError(err).WithField("message_id", messageID).Error("Failed to record sent message")
		return err
	}
	return nil
}

func (d *Dispatcher) success(lead *models.Lead, result *SendResult) *DeliveryResult {
	return &DeliveryResult{
		LeadName:  lead.Name,
		Phone:     NormalizePhone(*lead.Phone),
		MessageID: result.ID,
		Success:   true,
	}
}

func (d *Dispatcher) failure(name string, phone *string, err error) *DeliveryResult {
	out := &DeliveryResult{LeadName: name, Success: false, Error: err.Error()}
	if phone != nil {
		out.Phone = NormalizePhone(*phone)
	}
	return out
}
