package models

import "time"

// ActivityLog records every workflow mutation for the audit trail, the
// dashboard event stream, and the daily digest.
type ActivityLog struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	StockNumber string `gorm:"size:32;index"`
	Stage       string `gorm:"size:32"`
	Action      string `gorm:"size:32;not null"`
	Detail      string `gorm:"type:text"`
	CreatedAt   time.Time
}

// ActivityLog actions.
const (
	ActionImported       = "imported"
	ActionStageComplete  = "stage_complete"
	ActionStageReopened  = "stage_reopened"
	ActionSubStepToggled = "substep_toggled"
	ActionTitleInHouse   = "title_in_house"
	ActionLotReady       = "lot_ready"
	ActionAssigned       = "assigned"
	ActionNotes          = "notes"
	ActionDeleted        = "deleted"
)
