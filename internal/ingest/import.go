package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/vehicle"
	"gorm.io/gorm"
)

// ImportSummary reports what an import did.
type ImportSummary struct {
	Created int
	Updated int
	Skipped []RowError
}

// Import parses r and applies the drafts to the store. New stock numbers are
// created with a fresh workflow; stock numbers already on the lot get their
// descriptive fields refreshed while workflow state, status, detailer, and
// notes are preserved: re-uploading the current inventory must not reset
// anyone's recon progress.
func Import(db *gorm.DB, r io.Reader) (*ImportSummary, error) {
	res, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{Skipped: res.Skipped}
	for _, draft := range res.Vehicles {
		existing, err := vehicle.Get(db, draft.StockNumber)
		if err != nil && !errors.Is(err, vehicle.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			updates := map[string]interface{}{
				"vin":           draft.VIN,
				"year":          draft.Year,
				"make":          draft.Make,
				"model":         draft.Model,
				"body":          draft.Body,
				"color":         draft.Color,
				"odometer":      draft.Odometer,
				"original_cost": draft.OriginalCost,
				"unit_cost":     draft.UnitCost,
				"source":        draft.Source,
				"photo_count":   draft.PhotoCount,
			}
			if err := db.Model(&models.Vehicle{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("ingest: refresh %s: %w", draft.StockNumber, err)
			}
			summary.Updated++
		} else {
			if _, err := vehicle.Create(db, draft); err != nil {
				summary.Skipped = append(summary.Skipped, RowError{Reason: err.Error()})
				continue
			}
			summary.Created++
		}
	}
	return summary, nil
}
