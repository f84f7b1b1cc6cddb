package models

import "time"

// InventoryFile records one uploaded inventory CSV. At most one row is
// Current; older files live on in the archive directory.
type InventoryFile struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Filename     string `gorm:"size:255;not null"`
	StoredPath   string `gorm:"size:512"`
	SizeBytes    int64
	VehicleCount int
	Skipped      int
	Current      bool `gorm:"default:false;index"`
	UploadedAt   time.Time
}
