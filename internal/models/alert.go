package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceAlert is an explicit opt-in to be told when one specific listing
// drops in price. Alerts are only ever read by the price-reduction flow.
type PriceAlert struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	PropertyID string    `json:"property_id" gorm:"index"`
	Active     bool      `json:"active" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *PriceAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
