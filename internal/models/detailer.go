package models

import "time"

// Detailer is a member of the detail team that vehicles can be assigned to.
type Detailer struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:64;not null;uniqueIndex"`
	Email     string `gorm:"size:128"`
	Phone     string `gorm:"size:32"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
