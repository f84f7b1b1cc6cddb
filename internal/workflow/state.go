package workflow

import (
	"encoding/json"
	"time"
)

// SubStepRecord is the completion state of a single sub-step.
type SubStepRecord struct {
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// StageRecord is the per-vehicle state of a single stage.
type StageRecord struct {
	Completed   bool                      `json:"completed"`
	CompletedAt string                    `json:"completedAt,omitempty"`
	Notes       string                    `json:"notes,omitempty"`
	SubSteps    map[string]*SubStepRecord `json:"subSteps,omitempty"`
	InHouse     bool                      `json:"inHouse,omitempty"`
}

// State maps every fixed stage name to its record. A valid State has an
// entry for each configured stage and exactly the declared sub-steps.
type State map[string]*StageRecord

// Timestamp formats t as the canonical ISO-8601 UTC string used for all
// completedAt and lastUpdated values.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Initialize builds a complete fresh State: New Arrival completed (stamped
// with intakeDate when parseable, else now), everything else incomplete.
// It never fails; garbage input has no way in.
func Initialize(intakeDate string) State {
	st := make(State, len(Stages))
	for _, s := range Stages {
		rec := &StageRecord{}
		if len(s.SubSteps) > 0 {
			rec.SubSteps = make(map[string]*SubStepRecord, len(s.SubSteps))
			for _, ss := range s.SubSteps {
				rec.SubSteps[ss.ID] = &SubStepRecord{}
			}
		}
		if s.Name == StageNewArrival {
			rec.Completed = true
			rec.CompletedAt = intakeTimestamp(intakeDate)
		}
		st[s.Name] = rec
	}
	return st
}

// intakeTimestamp converts an intake date to the canonical timestamp form,
// falling back to now when absent or unparseable.
func intakeTimestamp(intakeDate string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, intakeDate); err == nil {
			return Timestamp(t)
		}
	}
	return Timestamp(time.Now())
}

// Normalize repairs a possibly-incomplete State written by an older schema:
// every fixed stage present, every declared sub-step present (missing ones
// incomplete), unknown stages and sub-steps dropped. Idempotent. A nil or
// empty State comes back as a freshly initialized one.
func Normalize(st State) State {
	if len(st) == 0 {
		return Initialize("")
	}
	out := make(State, len(Stages))
	for _, s := range Stages {
		old := st[s.Name]
		rec := &StageRecord{}
		if old != nil {
			rec.Completed = old.Completed
			rec.CompletedAt = old.CompletedAt
			rec.Notes = old.Notes
			rec.InHouse = s.HasInHouse && old.InHouse
		}
		if len(s.SubSteps) > 0 {
			rec.SubSteps = make(map[string]*SubStepRecord, len(s.SubSteps))
			for _, ss := range s.SubSteps {
				sub := &SubStepRecord{}
				if old != nil && old.SubSteps != nil {
					if oldSub := old.SubSteps[ss.ID]; oldSub != nil {
						sub.Completed = oldSub.Completed
						sub.CompletedAt = oldSub.CompletedAt
					}
				}
				rec.SubSteps[ss.ID] = sub
			}
		}
		out[s.Name] = rec
	}
	return out
}

// Decode parses a persisted workflow JSON blob and normalizes it. Corrupt or
// empty blobs produce a fresh State seeded from intakeDate; load never fails.
func Decode(raw string, intakeDate string) State {
	if raw == "" {
		return Initialize(intakeDate)
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil || len(st) == 0 {
		return Initialize(intakeDate)
	}
	return Normalize(st)
}

// Encode serializes a State to its persisted JSON form.
func Encode(st State) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clone returns a deep copy of st. Transition operations mutate a clone so a
// failed operation leaves the caller's snapshot untouched.
func Clone(st State) State {
	out := make(State, len(st))
	for name, rec := range st {
		if rec == nil {
			out[name] = nil
			continue
		}
		cp := *rec
		if rec.SubSteps != nil {
			cp.SubSteps = make(map[string]*SubStepRecord, len(rec.SubSteps))
			for id, sub := range rec.SubSteps {
				if sub == nil {
					cp.SubSteps[id] = nil
					continue
				}
				subCp := *sub
				cp.SubSteps[id] = &subCp
			}
		}
		out[name] = &cp
	}
	return out
}
