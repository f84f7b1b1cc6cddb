package workflow

import "math"

// HighestCompletedStage answers "what milestone have we reached": the
// highest-order stage marked complete, scanning backward from the end. Never
// empty; New Arrival is always seeded complete.
func HighestCompletedStage(st State) string {
	for i := len(Stages) - 1; i >= 0; i-- {
		if rec := st[Stages[i].Name]; rec != nil && rec.Completed {
			return Stages[i].Name
		}
	}
	return StageNewArrival
}

// NextPendingStage answers "what should we work on next": the lowest-order
// incomplete stage. ok is false when every stage is complete (a fully
// processed vehicle).
func NextPendingStage(st State) (name string, ok bool) {
	for _, s := range Stages {
		if rec := st[s.Name]; rec == nil || !rec.Completed {
			return s.Name, true
		}
	}
	return "", false
}

// Progress returns the percent complete, 0-100 rounded. Every stage counts
// one unit and every declared sub-step counts one more, so a multi-step
// stage earns partial credit while in progress. Sub-steps add to their
// parent's unit rather than replacing it.
func Progress(st State) int {
	total, done := 0, 0
	for _, s := range Stages {
		total += 1 + len(s.SubSteps)
		rec := st[s.Name]
		if rec == nil {
			continue
		}
		if rec.Completed {
			done++
		}
		for _, ss := range s.SubSteps {
			if sub := rec.SubSteps[ss.ID]; sub != nil && sub.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// Eligibility is the result of the lot-ready gate check.
type Eligibility struct {
	Eligible bool     `json:"eligible"`
	Missing  []string `json:"missing"`
}

// LotReadyEligibility checks the gate for moving a vehicle to Lot Ready:
// Mechanical, Detailing, and Photos complete, and the title physically
// in-house. Title stage completion itself is not required; the in-house
// flag is what gates, since paperwork can trail the document. Pure read.
func LotReadyEligibility(st State) Eligibility {
	missing := []string{}
	for _, name := range []string{StageMechanical, StageDetailing, StagePhotos} {
		if rec := st[name]; rec == nil || !rec.Completed {
			missing = append(missing, name)
		}
	}
	if rec := st[StageTitle]; rec == nil || !rec.InHouse {
		missing = append(missing, TitleInHouseLabel)
	}
	return Eligibility{Eligible: len(missing) == 0, Missing: missing}
}

// StageView is one row of the read-only traversal exposed to exporters.
type StageView struct {
	Name        string `json:"name"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completedAt,omitempty"`
	InHouse     bool   `json:"inHouse,omitempty"`
}

// Overview returns the stages in workflow order with their completion state,
// for CSV flattening and display. Callers cannot reach the underlying
// records through it.
func Overview(st State) []StageView {
	views := make([]StageView, len(Stages))
	for i, s := range Stages {
		v := StageView{Name: s.Name}
		if rec := st[s.Name]; rec != nil {
			v.Completed = rec.Completed
			v.CompletedAt = rec.CompletedAt
			v.InHouse = rec.InHouse
		}
		views[i] = v
	}
	return views
}
