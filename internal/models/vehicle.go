package models

import "time"

// Vehicle is the core record in Recontrack: one unit of dealership inventory
// moving through the reconditioning workflow. StockNumber is the business
// key; the workflow state is stored as a JSON document and decoded by the
// workflow package.
type Vehicle struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	StockNumber string `gorm:"size:32;not null;uniqueIndex"`
	VIN         string `gorm:"size:17"`
	Year        int
	Make        string `gorm:"size:64"`
	Model       string `gorm:"size:64"`
	Body        string `gorm:"size:64"`
	Color       string `gorm:"size:32"`
	Odometer    int
	Source       string `gorm:"size:128"`
	OriginalCost string `gorm:"size:32"`
	UnitCost     string `gorm:"size:32"`
	PhotoCount   int
	DateIn       string `gorm:"size:32"`

	// Status caches the highest completed stage for display and filtering;
	// it is always rederivable from Workflow.
	Status           string `gorm:"size:32;default:New Arrival;index"`
	AssignedDetailer string `gorm:"size:64;index"`
	Notes            string `gorm:"type:text"`
	Workflow         string `gorm:"type:json"`

	// LastUpdated is the engine's ISO-8601 stamp, also used as the
	// optimistic-concurrency token on writes.
	LastUpdated string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
