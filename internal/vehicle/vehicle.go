// Package vehicle provides vehicle lifecycle operations: CRUD over the
// store plus the workflow transitions, each loading a snapshot, running the
// pure engine, and writing the result back under an optimistic-concurrency
// check on last_updated.
package vehicle

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/workflow"
	"gorm.io/gorm"
)

// ErrConflict is returned when a write loses the optimistic-concurrency
// race: the stored last_updated advanced between read and write.
var ErrConflict = errors.New("vehicle: concurrent update, reload and retry")

// ErrNotFound is returned when a stock number has no record.
var ErrNotFound = errors.New("vehicle: not found")

// ListFilters holds optional filters for listing vehicles.
type ListFilters struct {
	Status   string
	Detailer string
	Make     string
}

// Create inserts a new vehicle. The workflow is initialized (or normalized,
// when the draft carries one from an older export) and the cached status
// derived from it.
func Create(db *gorm.DB, draft models.Vehicle) (*models.Vehicle, error) {
	draft.StockNumber = strings.TrimSpace(draft.StockNumber)
	if draft.StockNumber == "" {
		return nil, fmt.Errorf("vehicle: stock number is required")
	}

	st := workflow.Decode(draft.Workflow, draft.DateIn)
	applyState(&draft, st)

	if err := db.Create(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "Duplicate") {
			return nil, fmt.Errorf("vehicle: stock number %s already exists", draft.StockNumber)
		}
		return nil, fmt.Errorf("vehicle: create %s: %w", draft.StockNumber, err)
	}
	logActivity(db, draft.StockNumber, "", models.ActionImported, draft.Year, draft.Make, draft.Model)
	return &draft, nil
}

// Get retrieves a vehicle by stock number.
func Get(db *gorm.DB, stockNumber string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := db.Where("stock_number = ?", stockNumber).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, stockNumber)
		}
		return nil, fmt.Errorf("vehicle: get %s: %w", stockNumber, err)
	}
	return &v, nil
}

// List returns vehicles matching the given filters, ordered by stock number.
func List(db *gorm.DB, filters ListFilters) ([]models.Vehicle, error) {
	q := db.Model(&models.Vehicle{})
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Detailer != "" {
		q = q.Where("assigned_detailer = ?", filters.Detailer)
	}
	if filters.Make != "" {
		q = q.Where("make = ?", filters.Make)
	}

	var vehicles []models.Vehicle
	if err := q.Order("stock_number ASC").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("vehicle: list: %w", err)
	}
	return vehicles, nil
}

// Delete removes a vehicle and its workflow with it.
func Delete(db *gorm.DB, stockNumber string) error {
	result := db.Where("stock_number = ?", stockNumber).Delete(&models.Vehicle{})
	if result.Error != nil {
		return fmt.Errorf("vehicle: delete %s: %w", stockNumber, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, stockNumber)
	}
	logActivity(db, stockNumber, "", models.ActionDeleted, "removed from inventory")
	return nil
}

// AssignDetailer sets or clears the assigned detailer.
func AssignDetailer(db *gorm.DB, stockNumber, detailer string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		v.AssignedDetailer = detailer
		return st, nil
	}, "", models.ActionAssigned, detailer)
}

// SetNotes replaces the vehicle-level notes.
func SetNotes(db *gorm.DB, stockNumber, notes string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		v.Notes = notes
		return st, nil
	}, "", models.ActionNotes, "updated")
}

// CompleteStage marks a stage complete through the engine.
func CompleteStage(db *gorm.DB, stockNumber, stageName, notes string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		return workflow.CompleteStage(st, stageName, workflow.CompleteOpts{Notes: notes})
	}, stageName, models.ActionStageComplete, stageName)
}

// UncompleteStage reverts a stage through the engine.
func UncompleteStage(db *gorm.DB, stockNumber, stageName string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		return workflow.UncompleteStage(st, stageName)
	}, stageName, models.ActionStageReopened, stageName)
}

// ToggleSubStep flips one sub-step through the engine.
func ToggleSubStep(db *gorm.DB, stockNumber, stageName, subStepID string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		return workflow.ToggleSubStep(st, stageName, subStepID)
	}, stageName, models.ActionSubStepToggled, subStepID)
}

// ToggleTitleInHouse flips the title in-house flag through the engine.
func ToggleTitleInHouse(db *gorm.DB, stockNumber string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		return workflow.ToggleTitleInHouse(st), nil
	}, workflow.StageTitle, models.ActionTitleInHouse, "toggled")
}

// MoveToLotReady runs the lot-ready gate and completes the stage when it
// passes. On INELIGIBLE the record is untouched and the error carries the
// missing conditions.
func MoveToLotReady(db *gorm.DB, stockNumber string) (*models.Vehicle, error) {
	return mutate(db, stockNumber, func(v *models.Vehicle, st workflow.State) (workflow.State, error) {
		return workflow.MoveToLotReady(st)
	}, workflow.StageLotReady, models.ActionLotReady, "moved to lot ready")
}

// Eligibility reports the lot-ready gate for a vehicle. Pure read.
func Eligibility(db *gorm.DB, stockNumber string) (workflow.Eligibility, error) {
	v, err := Get(db, stockNumber)
	if err != nil {
		return workflow.Eligibility{}, err
	}
	return workflow.LotReadyEligibility(State(v)), nil
}

// State decodes and normalizes a vehicle's persisted workflow. Decoding
// never fails; corrupt blobs come back as a fresh state.
func State(v *models.Vehicle) workflow.State {
	return workflow.Decode(v.Workflow, v.DateIn)
}

// mutate is the shared read-modify-write cycle: load, decode, apply fn to
// the snapshot, re-derive status, stamp last_updated, and write back only if
// the stored stamp has not advanced since the read.
func mutate(db *gorm.DB, stockNumber string, fn func(*models.Vehicle, workflow.State) (workflow.State, error), stage, action string, detailArgs ...interface{}) (*models.Vehicle, error) {
	v, err := Get(db, stockNumber)
	if err != nil {
		return nil, err
	}
	prevStamp := v.LastUpdated

	st, err := fn(v, State(v))
	if err != nil {
		return nil, err
	}
	applyState(v, st)

	result := db.Model(&models.Vehicle{}).
		Where("stock_number = ? AND last_updated = ?", stockNumber, prevStamp).
		Updates(map[string]interface{}{
			"status":            v.Status,
			"assigned_detailer": v.AssignedDetailer,
			"notes":             v.Notes,
			"workflow":          v.Workflow,
			"last_updated":      v.LastUpdated,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("vehicle: update %s: %w", stockNumber, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrConflict, stockNumber)
	}

	logActivity(db, stockNumber, stage, action, detailArgs...)
	return v, nil
}

// applyState encodes st onto v and refreshes the derived fields.
func applyState(v *models.Vehicle, st workflow.State) {
	raw, err := workflow.Encode(st)
	if err != nil {
		// State is plain maps and strings; this cannot fail in practice.
		log.Printf("vehicle: encode workflow for %s: %v", v.StockNumber, err)
		return
	}
	v.Workflow = raw
	v.Status = workflow.HighestCompletedStage(st)
	v.LastUpdated = workflow.Timestamp(time.Now())
}

// logActivity appends an audit row. Best-effort: failures are logged, the
// operation that triggered them has already succeeded.
func logActivity(db *gorm.DB, stockNumber, stage, action string, detailArgs ...interface{}) {
	detail := strings.TrimSpace(fmt.Sprintln(detailArgs...))
	entry := models.ActivityLog{
		StockNumber: stockNumber,
		Stage:       stage,
		Action:      action,
		Detail:      detail,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("vehicle: activity log %s/%s: %v", stockNumber, action, err)
	}
}
