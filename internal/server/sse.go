package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lotworks/recontrack/internal/models"
)

// activityEvent holds one activity-log entry for the event stream.
type activityEvent struct {
	ID          uint   `json:"id"`
	StockNumber string `json:"stockNumber"`
	Stage       string `json:"stage,omitempty"`
	Action      string `json:"action"`
	Detail      string `json:"detail,omitempty"`
	At          string `json:"at"`
}

// handleSSE streams new activity-log entries to the client. The browser UI
// uses this to refresh boards without polling the REST endpoints itself.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		if db == nil {
			return
		}

		// Only stream entries written after the client connected.
		var lastSeenID uint
		var latest models.ActivityLog
		if err := db.Order("id DESC").Limit(1).First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var entries []models.ActivityLog
				db.Where("id > ?", lastSeenID).Order("id ASC").Find(&entries)
				if len(entries) == 0 {
					continue
				}
				lastSeenID = entries[len(entries)-1].ID

				for _, entry := range entries {
					writeSSE(c.Writer, "activity", activityEvent{
						ID:          entry.ID,
						StockNumber: entry.StockNumber,
						Stage:       entry.Stage,
						Action:      entry.Action,
						Detail:      entry.Detail,
						At:          entry.CreatedAt.UTC().Format(time.RFC3339),
					})
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
