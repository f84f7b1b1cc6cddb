package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lotworks/recontrack/internal/detailer"
	"github.com/lotworks/recontrack/internal/export"
	"github.com/lotworks/recontrack/internal/ingest"
	"github.com/lotworks/recontrack/internal/inventory"
	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/notify"
	"github.com/lotworks/recontrack/internal/vehicle"
	"github.com/lotworks/recontrack/internal/workflow"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	db := opts.DB

	// Status page.
	router.GET("/", handleIndex(db, opts.Dealership))

	api := router.Group("/api")
	api.GET("/health", handleHealth(db))
	api.GET("/system/info", handleSystemInfo(opts.Dealership))

	api.POST("/inventory/upload", handleInventoryUpload(db, opts.Store, opts.Notifier))
	api.GET("/inventory/current", handleInventoryCurrent(opts.Store))
	api.GET("/inventory/history", handleInventoryHistory(opts.Store))

	api.GET("/detailers", handleDetailerList(db))
	api.POST("/detailers", handleDetailerAdd(db))
	api.PUT("/detailers/:id", handleDetailerUpdate(db))
	api.DELETE("/detailers/:id", handleDetailerRemove(db))

	api.GET("/vehicles", handleVehicleList(db))
	api.POST("/vehicles", handleVehicleCreate(db))
	api.GET("/vehicles/:stock", handleVehicleGet(db))
	api.PATCH("/vehicles/:stock", handleVehiclePatch(db))
	api.DELETE("/vehicles/:stock", handleVehicleDelete(db))

	api.POST("/vehicles/:stock/stages/:stage/complete", handleStageComplete(db))
	api.POST("/vehicles/:stock/stages/:stage/uncomplete", handleStageUncomplete(db))
	api.POST("/vehicles/:stock/stages/:stage/substeps/:substep/toggle", handleSubStepToggle(db))
	api.POST("/vehicles/:stock/title/in-house", handleTitleInHouse(db))
	api.GET("/vehicles/:stock/eligibility", handleEligibility(db))
	api.POST("/vehicles/:stock/lot-ready", handleLotReady(db, opts.Notifier))

	api.GET("/export/csv", handleExportCSV(db))
	api.GET("/export/json", handleExportJSON(db))

	api.GET("/events", handleSSE(db))
}

func handleIndex(db *gorm.DB, dealership string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "layout.html", gin.H{
			"Dealership": dealership,
			"Counts":     statusCounts(db),
		})
	}
}

// statusCounts returns vehicle counts keyed by stage, in stage order.
func statusCounts(db *gorm.DB) []gin.H {
	counts := make([]gin.H, 0, len(workflow.Stages))
	if db == nil {
		return counts
	}
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	db.Table("vehicles").Select("status, count(*) as n").Group("status").Scan(&rows)
	byStatus := make(map[string]int64, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r.N
	}
	for _, s := range workflow.Stages {
		counts = append(counts, gin.H{"Status": s.Name, "Count": byStatus[s.Name]})
	}
	return counts
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func handleSystemInfo(dealership string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"dealership": dealership,
			"stages":     workflow.StageNames(),
			"goVersion":  runtime.Version(),
		})
	}
}

func handleInventoryUpload(db *gorm.DB, store *inventory.Store, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		// Buffer the upload: the CSV is parsed once for the import and
		// written once to the uploads directory.
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		summary, err := ingest.Import(db, bytes.NewReader(buf.Bytes()))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := store.SaveUpload(fileHeader.Filename, bytes.NewReader(buf.Bytes()),
			summary.Created+summary.Updated, len(summary.Skipped))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		notifier.Send(notify.Event{
			Kind:    notify.KindImport,
			Subject: "Inventory imported",
			Body: fmt.Sprintf("%s: %d created, %d updated, %d skipped",
				fileHeader.Filename, summary.Created, summary.Updated, len(summary.Skipped)),
		})

		skipped := make([]string, 0, len(summary.Skipped))
		for _, s := range summary.Skipped {
			skipped = append(skipped, s.String())
		}
		c.JSON(http.StatusOK, gin.H{
			"filename": rec.Filename,
			"created":  summary.Created,
			"updated":  summary.Updated,
			"skipped":  skipped,
		})
	}
}

func handleInventoryCurrent(store *inventory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := store.Current()
		if errors.Is(err, inventory.ErrNoCurrent) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no inventory uploaded yet"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func handleInventoryHistory(store *inventory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		files, err := store.History()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, files)
	}
}

func handleDetailerList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("active") == "true"
		list, err := detailer.List(db, activeOnly)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleDetailerAdd(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := detailer.Add(db, req.Name, req.Email, req.Phone)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}

func handleDetailerUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detailer id"})
			return
		}
		var req struct {
			Name   *string `json:"name"`
			Email  *string `json:"email"`
			Phone  *string `json:"phone"`
			Active *bool   `json:"active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := detailer.Update(db, uint(id), detailer.UpdateOpts{
			Name:   req.Name,
			Email:  req.Email,
			Phone:  req.Phone,
			Active: req.Active,
		})
		if errors.Is(err, detailer.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func handleDetailerRemove(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detailer id"})
			return
		}
		if err := detailer.Remove(db, uint(id)); err != nil {
			if errors.Is(err, detailer.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": id})
	}
}

func handleVehicleList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicles, err := vehicle.List(db, vehicle.ListFilters{
			Status:   c.Query("status"),
			Detailer: c.Query("detailer"),
			Make:     c.Query("make"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, export.Records(vehicles))
	}
}

func handleVehicleCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			StockNumber string `json:"stockNumber"`
			VIN         string `json:"vin"`
			Year        int    `json:"year"`
			Make        string `json:"make"`
			Model       string `json:"model"`
			Body        string `json:"body"`
			Color       string `json:"color"`
			Odometer    int    `json:"odometer"`
			Source      string `json:"source"`
			DateIn      string `json:"dateIn"`
			Notes       string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		v, err := vehicle.Create(db, models.Vehicle{
			StockNumber: req.StockNumber,
			VIN:         req.VIN,
			Year:        req.Year,
			Make:        req.Make,
			Model:       req.Model,
			Body:        req.Body,
			Color:       req.Color,
			Odometer:    req.Odometer,
			Source:      req.Source,
			DateIn:      req.DateIn,
			Notes:       req.Notes,
		})
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, export.VehicleRecord(v))
	}
}

func handleVehicleGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := vehicle.Get(db, c.Param("stock"))
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleVehiclePatch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AssignedDetailer *string `json:"assignedDetailer"`
			Notes            *string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stock := c.Param("stock")
		var (
			v   *models.Vehicle
			err error
		)
		switch {
		case req.AssignedDetailer != nil:
			v, err = vehicle.AssignDetailer(db, stock, *req.AssignedDetailer)
		case req.Notes != nil:
			v, err = vehicle.SetNotes(db, stock, *req.Notes)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
			return
		}
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleVehicleDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stock := c.Param("stock")
		if err := vehicle.Delete(db, stock); err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": stock})
	}
}

func handleStageComplete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Notes string `json:"notes"`
		}
		// Body is optional for stage completion.
		c.ShouldBindJSON(&req)
		v, err := vehicle.CompleteStage(db, c.Param("stock"), c.Param("stage"), req.Notes)
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleStageUncomplete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := vehicle.UncompleteStage(db, c.Param("stock"), c.Param("stage"))
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleSubStepToggle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := vehicle.ToggleSubStep(db, c.Param("stock"), c.Param("stage"), c.Param("substep"))
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleTitleInHouse(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := vehicle.ToggleTitleInHouse(db, c.Param("stock"))
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleEligibility(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		elig, err := vehicle.Eligibility(db, c.Param("stock"))
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"eligible": elig.Eligible,
			"missing":  elig.Missing,
		})
	}
}

func handleLotReady(db *gorm.DB, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		stock := c.Param("stock")
		v, err := vehicle.MoveToLotReady(db, stock)
		if err != nil {
			writeVehicleError(c, err)
			return
		}
		notifier.Send(notify.Event{
			Kind:        notify.KindLotReady,
			Subject:     fmt.Sprintf("Vehicle %s is lot ready", stock),
			Body:        fmt.Sprintf("%d %s %s (stock %s) is ready for the lot.", v.Year, v.Make, v.Model, stock),
			StockNumber: stock,
		})
		c.JSON(http.StatusOK, export.VehicleRecord(v))
	}
}

func handleExportCSV(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicles, err := vehicle.List(db, vehicle.ListFilters{Status: c.Query("status")})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		filename := fmt.Sprintf("recon-export-%s.csv", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := export.WriteCSV(c.Writer, vehicles); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func handleExportJSON(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicles, err := vehicle.List(db, vehicle.ListFilters{Status: c.Query("status")})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, export.Records(vehicles))
	}
}

// writeVehicleError maps store and workflow errors to HTTP statuses. The
// workflow taxonomy code rides along in the body so clients can branch on
// it without parsing messages.
func writeVehicleError(c *gin.Context, err error) {
	if errors.Is(err, vehicle.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, vehicle.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		status := http.StatusBadRequest
		switch wfErr.Code {
		case workflow.CodeInvalidTransition, workflow.CodeIneligible:
			status = http.StatusConflict
		case workflow.CodeMalformedRecord:
			status = http.StatusInternalServerError
		}
		body := gin.H{"error": err.Error(), "code": string(wfErr.Code)}
		if len(wfErr.Missing) > 0 {
			body["missing"] = wfErr.Missing
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
