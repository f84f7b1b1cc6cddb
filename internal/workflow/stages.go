// Package workflow implements the reconditioning workflow engine: the fixed
// stage list, per-vehicle stage state, transition rules, and derived
// computations (progress, current status, lot-ready eligibility). It is pure
// logic: no database, no HTTP, no clock beyond stamping timestamps.
package workflow

// Stage names. The workflow is fixed configuration, not per-vehicle data.
const (
	StageNewArrival = "New Arrival"
	StageMechanical = "Mechanical"
	StageDetailing  = "Detailing"
	StagePhotos     = "Photos"
	StageTitle      = "Title"
	StageLotReady   = "Lot Ready"
	StageSold       = "Sold"
)

// TitleInHouseLabel is the display label for the title in-house gate
// condition, distinct from the "Title" stage completion itself.
const TitleInHouseLabel = "Title In-House"

// SubStep is a finer-grained task within a stage.
type SubStep struct {
	ID   string
	Name string
}

// Stage is one named step of the fixed reconditioning workflow.
type Stage struct {
	Name     string
	Order    int
	SubSteps []SubStep
	// HasInHouse marks the stage carrying the title in-house flag, which
	// participates in lot-ready gating independent of stage completion.
	HasInHouse bool
}

// Stages is the canonical ordered workflow. A vehicle's stage records always
// cover exactly this set.
var Stages = []Stage{
	{Name: StageNewArrival, Order: 0},
	{Name: StageMechanical, Order: 1, SubSteps: []SubStep{
		{ID: "email-service", Name: "Email Service Manager"},
		{ID: "mechanic-pickup", Name: "Mechanic Pickup"},
		{ID: "mechanic-return", Name: "Mechanic Return"},
	}},
	{Name: StageDetailing, Order: 2},
	{Name: StagePhotos, Order: 3},
	{Name: StageTitle, Order: 4, HasInHouse: true},
	{Name: StageLotReady, Order: 5},
	{Name: StageSold, Order: 6},
}

// StageByName returns the stage definition for name.
func StageByName(name string) (Stage, bool) {
	for _, s := range Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// StageNames returns the stage names in workflow order.
func StageNames() []string {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = s.Name
	}
	return names
}

// subStepIDs returns the declared sub-step ids for a stage.
func subStepIDs(s Stage) []string {
	ids := make([]string, len(s.SubSteps))
	for i, ss := range s.SubSteps {
		ids[i] = ss.ID
	}
	return ids
}
