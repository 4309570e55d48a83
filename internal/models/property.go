package models

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyType is the transaction type of a listing. The string values are
// the ones stored in the database and shown in outbound messages.
type PropertyType string

const (
	TypeSale        PropertyType = "venda"
	TypeRent        PropertyType = "aluguel"
	TypeLaunch      PropertyType = "lancamento"
	TypeDevelopment PropertyType = "empreendimento"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeSale, TypeRent, TypeLaunch, TypeDevelopment:
		return true
	}
	return false
}

// PropertyStatus tracks listing availability.
type PropertyStatus string

const (
	StatusAvailable PropertyStatus = "disponivel"
	StatusSold      PropertyStatus = "vendido"
	StatusRented    PropertyStatus = "alugado"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusRented:
		return true
	}
	return false
}

type Property struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	Title          string         `json:"title"`
	Slug           string         `json:"slug" gorm:"index"`
	Description    string         `json:"description"`
	Price          int            `json:"price"`
	PreviousPrice  *int           `json:"previous_price"`
	PriceReduced   bool           `json:"price_reduced"`
	PriceReducedAt *time.Time     `json:"price_reduced_at"`
	Type           PropertyType   `json:"type"`
	Category       string         `json:"category"`
	Status         PropertyStatus `json:"status" gorm:"index"`
	City           string         `json:"city" gorm:"index"`
	State          string         `json:"state"`
	PostalCode     *string        `json:"postal_code"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	Bedrooms       *int           `json:"bedrooms"`
	Bathrooms      *int           `json:"bathrooms"`
	Area           *int           `json:"area"`
	Images         string         `json:"images"` // JSON array of URLs, first is the cover
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// FirstImage returns the cover image URL, or "" when the listing has none.
func (p *Property) FirstImage() string {
	if p.Images == "" {
		return ""
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.Images), &urls); err != nil {
		return ""
	}
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// HasCoordinates reports whether the listing already carries a GPS position.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// FormatPrice renders an integer price with pt-BR thousands separators,
// e.g. 500000 -> "500.000". Message templates rely on this exact shape.
func FormatPrice(price int) string {
	digits := strconv.Itoa(price)
	neg := false
	if digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
