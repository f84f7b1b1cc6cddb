// Package ingest converts raw inventory CSV rows into vehicle records. One
// bad row never aborts the batch: rows failing the minimum contract (a
// non-empty, unique stock number) are skipped and reported.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lotworks/recontrack/internal/models"
)

// RowError describes one skipped CSV row.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result holds the usable drafts and the rows that were dropped.
type Result struct {
	Vehicles []models.Vehicle
	Skipped  []RowError
}

// stockAliases are the header spellings seen in real inventory exports.
var stockAliases = []string{"Stock #", "Stock#", "Stock"}

// ParseCSV reads an inventory CSV into vehicle drafts. Headers are matched
// after stripping quotes, carriage returns, and surrounding whitespace.
// Returns an error only when the input is not CSV at all or carries no
// stock-number column.
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	stockCol := -1
	for _, alias := range stockAliases {
		if i, ok := cols[alias]; ok {
			stockCol = i
			break
		}
	}
	if stockCol == -1 {
		return nil, fmt.Errorf("ingest: no stock number column in header %v", header)
	}

	res := &Result{}
	seen := make(map[string]bool)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		stock := ""
		if stockCol < len(record) {
			stock = strings.TrimSpace(record[stockCol])
		}
		if stock == "" {
			res.Skipped = append(res.Skipped, RowError{Line: line, Reason: "missing stock number"})
			continue
		}
		if seen[stock] {
			res.Skipped = append(res.Skipped, RowError{Line: line, Reason: "duplicate stock number " + stock})
			continue
		}
		seen[stock] = true

		v := models.Vehicle{
			StockNumber:  stock,
			VIN:          field("VIN"),
			Year:         parseInt(field("Year")),
			Make:         field("Make"),
			Model:        field("Model"),
			Body:         field("Body"),
			Color:        field("Color"),
			Odometer:     parseOdometer(field("Odometer")),
			OriginalCost: field("Original Cost"),
			UnitCost:     field("Unit Cost"),
			Source:       field("Vehicle Source"),
			PhotoCount:   parseInt(field("Photos")),
			DateIn:       dateIn(field("Inventory Date"), field("Created")),
		}
		if tags := field("Tags"); tags != "" {
			v.Notes = "Tags: " + tags
		}
		res.Vehicles = append(res.Vehicles, v)
	}
	return res, nil
}

// normalizeHeader strips quotes, carriage returns, and whitespace around a
// header cell.
func normalizeHeader(h string) string {
	h = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(h)
	return strings.TrimSpace(h)
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseOdometer tolerates the "12,345" thousands form used in exports.
func parseOdometer(s string) int {
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	return parseInt(s)
}

// dateIn picks the intake date from the columns that carry it, defaulting to
// today.
func dateIn(inventoryDate, created string) string {
	if inventoryDate != "" {
		return inventoryDate
	}
	if created != "" {
		return created
	}
	return time.Now().UTC().Format("2006-01-02")
}
