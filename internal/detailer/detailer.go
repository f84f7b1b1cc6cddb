// Package detailer manages the detail-team roster.
package detailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lotworks/recontrack/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a detailer id has no record.
var ErrNotFound = errors.New("detailer: not found")

// UpdateOpts holds the optional fields for Update. Nil pointers leave the
// stored value alone.
type UpdateOpts struct {
	Name   *string
	Email  *string
	Phone  *string
	Active *bool
}

// Add creates a new detailer. Names are unique, case-insensitively.
func Add(db *gorm.DB, name, email, phone string) (*models.Detailer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("detailer: name is required")
	}

	var count int64
	if err := db.Model(&models.Detailer{}).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("detailer: check %q: %w", name, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("detailer: %q already exists", name)
	}

	d := models.Detailer{Name: name, Email: email, Phone: phone, Active: true}
	if err := db.Create(&d).Error; err != nil {
		return nil, fmt.Errorf("detailer: create %q: %w", name, err)
	}
	return &d, nil
}

// Get retrieves a detailer by id.
func Get(db *gorm.DB, id uint) (*models.Detailer, error) {
	var d models.Detailer
	if err := db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("detailer: get %d: %w", id, err)
	}
	return &d, nil
}

// List returns the roster, optionally only active members, ordered by name.
func List(db *gorm.DB, activeOnly bool) ([]models.Detailer, error) {
	q := db.Model(&models.Detailer{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var detailers []models.Detailer
	if err := q.Order("name ASC").Find(&detailers).Error; err != nil {
		return nil, fmt.Errorf("detailer: list: %w", err)
	}
	return detailers, nil
}

// Update modifies the fields set in opts.
func Update(db *gorm.DB, id uint, opts UpdateOpts) (*models.Detailer, error) {
	d, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Name != nil && strings.TrimSpace(*opts.Name) != "" {
		updates["name"] = strings.TrimSpace(*opts.Name)
	}
	if opts.Email != nil {
		updates["email"] = *opts.Email
	}
	if opts.Phone != nil {
		updates["phone"] = *opts.Phone
	}
	if opts.Active != nil {
		updates["active"] = *opts.Active
	}
	if len(updates) == 0 {
		return d, nil
	}

	if err := db.Model(d).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("detailer: update %d: %w", id, err)
	}
	return Get(db, id)
}

// Remove deletes a detailer from the roster. Vehicles keep their assigned
// name; assignments are free text, not foreign keys.
func Remove(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Detailer{}, id)
	if result.Error != nil {
		return fmt.Errorf("detailer: remove %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
