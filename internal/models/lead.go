package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadStatus is the pipeline stage of a captured lead.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "novo"
	LeadStatusInterested LeadStatus = "interessado"
	LeadStatusContacted  LeadStatus = "contatado"
	LeadStatusConverted  LeadStatus = "convertido"
	LeadStatusLost       LeadStatus = "perdido"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusInterested, LeadStatusContacted,
		LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// Lead is a prospective client captured from a contact form. The Preferred*
// fields are a snapshot of what the lead asked for; the Property* fields
// denormalize the listing that originally caught their interest.
type Lead struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name"`
	Phone          *string    `json:"phone"`
	Email          *string    `json:"email"`
	Status         LeadStatus `json:"status" gorm:"index"`
	EnableMatching bool       `json:"enable_matching" gorm:"index"`

	PreferredType      *PropertyType `json:"preferred_type"`
	PreferredCategory  *string       `json:"preferred_category"`
	PreferredCity      *string       `json:"preferred_city"`
	PreferredState     *string       `json:"preferred_state"`
	PreferredPriceMin  *int          `json:"preferred_price_min"`
	PreferredPriceMax  *int          `json:"preferred_price_max"`
	PreferredBedrooms  *int          `json:"preferred_bedrooms"`
	PreferredBathrooms *int          `json:"preferred_bathrooms"`

	PropertyID    *string       `json:"property_id"`
	PropertyTitle *string       `json:"property_title"`
	PropertyPrice *int          `json:"property_price"`
	PropertyType  *PropertyType `json:"property_type"`

	AgentProcessed   bool       `json:"agent_processed"`
	AgentStatus      *string    `json:"agent_status"`
	AgentProcessedAt *time.Time `json:"agent_processed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// HasPhone reports whether the lead can be reached on WhatsApp.
func (l *Lead) HasPhone() bool {
	return l.Phone != nil && *l.Phone != ""
}
