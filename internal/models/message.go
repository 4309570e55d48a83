package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageSource tags which flow produced an outbound message.
type MessageSource string

const (
	SourcePropertyMatching    MessageSource = "property_matching"
	SourceLeadSuggestions     MessageSource = "lead_suggestions"
	SourcePriceAlert          MessageSource = "price_alert"
	SourceAppointment         MessageSource = "appointment"
	SourceContactNotification MessageSource = "contact_notification"
)

func (s MessageSource) Valid() bool {
	switch s {
	case SourcePropertyMatching, SourceLeadSuggestions, SourcePriceAlert,
		SourceAppointment, SourceContactNotification:
		return true
	}
	return false
}

// MessageStatus is the recorded delivery outcome.
type MessageStatus string

const (
	MessageSent   MessageStatus = "sent"
	MessageFailed MessageStatus = "failed"
)

// WhatsAppMessage is one row of the append-only outbound message log.
// Rows are written exactly once per successful external send and never
// mutated afterwards; the admin monitor reads them back in reverse order.
type WhatsAppMessage struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	MessageID   string        `json:"message_id" gorm:"index"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Body        string        `json:"body"`
	Type        string        `json:"type"`
	Timestamp   time.Time     `json:"timestamp"`
	FromMe      bool          `json:"from_me"`
	Status      MessageStatus `json:"status"`
	Source      MessageSource `json:"source" gorm:"index"`
	PropertyID  *string       `json:"property_id"`
	ContactName *string       `json:"contact_name"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (m *WhatsAppMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
