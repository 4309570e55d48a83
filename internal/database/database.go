package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"imoveisdf/server/internal/models"
)

// Database is the relational store behind the matching and dispatch core.
// It exposes only the filtered reads and field updates the core consumes.
type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewDatabase(path string, logger *logrus.Logger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Property{},
		&models.Lead{},
		&models.PriceAlert{},
		&models.WhatsAppMessage{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{db: db, logger: logger}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetProperty(id string) (*models.Property, error) {
	var property models.Property
	if err := d.db.First(&property, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (d *Database) CreateProperty(property *models.Property) error {
	return d.db.Create(property).Error
}

// UpdatePropertyFields applies a partial update by column name.
func (d *Database) UpdatePropertyFields(id string, fields map[string]interface{}) error {
	return d.db.Model(&models.Property{}).Where("id = ?", id).Updates(fields).Error
}

func (d *Database) GetLead(id string) (*models.Lead, error) {
	var lead models.Lead
	if err := d.db.First(&lead, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (d *Database) CreateLead(lead *models.Lead) error {
	return d.db.Create(lead).Error
}

func (d *Database) UpdateLeadFields(id string, fields map[string]interface{}) error {
	return d.db.Model(&models.Lead{}).Where("id = ?", id).Updates(fields).Error
}

// FindMatchCandidates loads the lead pool worth scoring against a property:
// opted in, reachable, in an active status, and not contradicting the
// property on type, category or city. A lead with no stated preference on a
// dimension passes that dimension; the engine scores the rest.
func (d *Database) FindMatchCandidates(property *models.Property) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := d.db.
		Where("enable_matching = ?", true).
		Where("phone IS NOT NULL AND phone <> ''").
		Where("status IN ?", []models.LeadStatus{
			models.LeadStatusNew,
			models.LeadStatusInterested,
			models.LeadStatusLost,
			models.LeadStatusContacted,
		}).
		Where(
			d.db.Where("preferred_type = ?", property.Type).
				Or("property_type = ?", property.Type).
				Or("preferred_type IS NULL AND property_type IS NULL"),
		).
		Where(
			d.db.Where("preferred_category = ?", property.Category).
				Or("preferred_category IS NULL"),
		).
		Where(
			d.db.Where("preferred_city = ?", property.City).
				Or("preferred_city IS NULL"),
		).
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

// FindSuggestions returns the newest available listings compatible with a
// lead's stated or denormalized preferences, excluding the listing that
// originally captured them. The filter is the ranking; newest first.
func (d *Database) FindSuggestions(lead *models.Lead, limit int) ([]*models.Property, error) {
	query := d.db.Where("status = ?", models.StatusAvailable)

	if lead.PropertyID != nil {
		query = query.Where("id <> ?", *lead.PropertyID)
	}

	if lead.PreferredType != nil || lead.PropertyType != nil {
		typeQuery := d.db.Where("1 = 0")
		if lead.PreferredType != nil {
			typeQuery = typeQuery.Or("type = ?", *lead.PreferredType)
		}
		if lead.PropertyType != nil {
			typeQuery = typeQuery.Or("type = ?", *lead.PropertyType)
		}
		query = query.Where(typeQuery)
	}

	if lead.PreferredCategory != nil {
		query = query.Where("category = ?", *lead.PreferredCategory)
	}
	if lead.PreferredCity != nil {
		query = query.Where("city = ?", *lead.PreferredCity)
	}
	if lead.PreferredPriceMin != nil && lead.PreferredPriceMax != nil {
		query = query.Where("price >= ? AND price <= ?", *lead.PreferredPriceMin, *lead.PreferredPriceMax)
	}

	var properties []*models.Property
	err := query.Order("created_at DESC").Limit(limit).Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}

func (d *Database) CreatePriceAlert(alert *models.PriceAlert) error {
	return d.db.Create(alert).Error
}

// FindActivePriceAlerts returns the opt-in watchers for one listing.
func (d *Database) FindActivePriceAlerts(propertyID string) ([]*models.PriceAlert, error) {
	var alerts []*models.PriceAlert
	err := d.db.
		Where("property_id = ? AND active = ?", propertyID, true).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// AppendMessage writes one row of the append-only outbound message log.
func (d *Database) AppendMessage(msg *models.WhatsAppMessage) error {
	return d.db.Create(msg).Error
}

// RecentMessages feeds the admin monitoring view, newest first.
func (d *Database) RecentMessages(limit int) ([]*models.WhatsAppMessage, error) {
	var messages []*models.WhatsAppMessage
	err := d.db.Order("timestamp DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// PropertiesMissingCoordinates returns listings that have a postal code but
// no GPS position yet, for the backfill pass.
func (d *Database) PropertiesMissingCoordinates() ([]*models.Property, error) {
	var properties []*models.Property
	err := d.db.
		Where("postal_code IS NOT NULL AND postal_code <> ''").
		Where("latitude IS NULL OR longitude IS NULL").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}
