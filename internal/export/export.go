// Package export serializes the vehicle collection back out: CSV with the
// workflow flattened into per-stage columns, and JSON in the persisted
// record shape.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/vehicle"
	"github.com/lotworks/recontrack/internal/workflow"
)

// baseHeader are the descriptive columns; one column per stage follows, then
// the title in-house column.
var baseHeader = []string{
	"Stock #", "VIN", "Year", "Make", "Model", "Body", "Color", "Odometer",
	"Date In", "Status", "Detailer", "Notes", "Progress", "Last Updated",
}

// Header returns the full CSV header row.
func Header() []string {
	h := append([]string{}, baseHeader...)
	for _, name := range workflow.StageNames() {
		h = append(h, name)
	}
	return append(h, workflow.TitleInHouseLabel)
}

// WriteCSV writes the vehicles as CSV, one row per vehicle, stage completion
// flattened to Complete/Pending columns through the engine's read-only
// traversal.
func WriteCSV(w io.Writer, vehicles []models.Vehicle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for i := range vehicles {
		v := &vehicles[i]
		st := vehicle.State(v)
		row := []string{
			v.StockNumber, v.VIN, strconv.Itoa(v.Year), v.Make, v.Model, v.Body,
			v.Color, strconv.Itoa(v.Odometer), v.DateIn, v.Status,
			v.AssignedDetailer, v.Notes, strconv.Itoa(workflow.Progress(st)),
			v.LastUpdated,
		}
		inHouse := "No"
		for _, sv := range workflow.Overview(st) {
			if sv.Completed {
				row = append(row, "Complete")
			} else {
				row = append(row, "Pending")
			}
			if sv.Name == workflow.StageTitle && sv.InHouse {
				inHouse = "Yes"
			}
		}
		row = append(row, inHouse)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write %s: %w", v.StockNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record is the JSON export shape: the persisted record with the workflow
// expanded from its stored blob.
type Record struct {
	StockNumber      string         `json:"stockNumber"`
	VIN              string         `json:"vin,omitempty"`
	Year             int            `json:"year,omitempty"`
	Make             string         `json:"make,omitempty"`
	Model            string         `json:"model,omitempty"`
	Body             string         `json:"body,omitempty"`
	Color            string         `json:"color,omitempty"`
	Odometer         int            `json:"odometer,omitempty"`
	Source           string         `json:"source,omitempty"`
	DateIn           string         `json:"dateIn,omitempty"`
	Status           string         `json:"status"`
	AssignedDetailer string         `json:"assignedDetailer,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	Progress         int            `json:"progress"`
	LastUpdated      string         `json:"lastUpdated"`
	Workflow         workflow.State `json:"workflow"`
}

// VehicleRecord expands a stored vehicle into its export shape.
func VehicleRecord(v *models.Vehicle) Record {
	st := vehicle.State(v)
	return Record{
		StockNumber:      v.StockNumber,
		VIN:              v.VIN,
		Year:             v.Year,
		Make:             v.Make,
		Model:            v.Model,
		Body:             v.Body,
		Color:            v.Color,
		Odometer:         v.Odometer,
		Source:           v.Source,
		DateIn:           v.DateIn,
		Status:           v.Status,
		AssignedDetailer: v.AssignedDetailer,
		Notes:            v.Notes,
		Progress:         workflow.Progress(st),
		LastUpdated:      v.LastUpdated,
		Workflow:         st,
	}
}

// Records expands each vehicle. Never returns nil, so callers can hand the
// result straight to a JSON encoder.
func Records(vehicles []models.Vehicle) []Record {
	records := make([]Record, len(vehicles))
	for i := range vehicles {
		records[i] = VehicleRecord(&vehicles[i])
	}
	return records
}

// WriteJSON writes the vehicles as a JSON array of Records.
func WriteJSON(w io.Writer, vehicles []models.Vehicle) error {
	records := Records(vehicles)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
