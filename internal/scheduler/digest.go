package scheduler

import (
	"fmt"
	"strings"

	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/workflow"
	"gorm.io/gorm"
)

// StageCount holds a status and its vehicle count.
type StageCount struct {
	Status string
	Count  int
}

// BuildDigest summarizes the lot by stage for the daily notification.
func BuildDigest(db *gorm.DB) (string, error) {
	var rows []StageCount
	if err := db.Model(&models.Vehicle{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return "", fmt.Errorf("scheduler: stage counts: %w", err)
	}
	counts := make(map[string]int, len(rows))
	total := 0
	for _, r := range rows {
		counts[r.Status] = r.Count
		total += r.Count
	}

	var b strings.Builder
	for _, name := range workflow.StageNames() {
		if counts[name] == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d\n", name, counts[name])
	}
	fmt.Fprintf(&b, "Total: %d", total)
	return b.String(), nil
}
