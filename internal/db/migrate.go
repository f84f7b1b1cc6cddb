package db

import (
	"fmt"

	"github.com/lotworks/recontrack/internal/config"
	"github.com/lotworks/recontrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Vehicle{},
		&models.Detailer{},
		&models.InventoryFile{},
		&models.ActivityLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedDetailers upserts Detailer rows from configuration.
func SeedDetailers(db *gorm.DB, detailers []config.DetailerConfig) error {
	for _, dc := range detailers {
		d := models.Detailer{
			Name:   dc.Name,
			Email:  dc.Email,
			Phone:  dc.Phone,
			Active: true,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "phone", "active"}),
		}).Create(&d)
		if result.Error != nil {
			return fmt.Errorf("db: seed detailer %q: %w", dc.Name, result.Error)
		}
	}
	return nil
}

// Reset drops and recreates all tables.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(AllModels()...); err != nil {
		return fmt.Errorf("db: drop tables: %w", err)
	}
	return AutoMigrate(db)
}
