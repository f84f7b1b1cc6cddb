package workflow

import (
	"reflect"
	"testing"
)

func TestFreshWorkflow_Derivations(t *testing.T) {
	st := Initialize("")
	if got := HighestCompletedStage(st); got != StageNewArrival {
		t.Errorf("HighestCompletedStage = %q, want %q", got, StageNewArrival)
	}
	next, ok := NextPendingStage(st)
	if !ok || next != StageMechanical {
		t.Errorf("NextPendingStage = %q, %v; want %q", next, ok, StageMechanical)
	}
}

func TestNextPendingStage_FullyProcessed(t *testing.T) {
	st := Initialize("")
	var err error
	for _, name := range []string{StageMechanical, StageDetailing, StagePhotos, StageTitle, StageLotReady, StageSold} {
		if st, err = CompleteStage(st, name, CompleteOpts{}); err != nil {
			t.Fatal(err)
		}
	}
	if next, ok := NextPendingStage(st); ok {
		t.Errorf("NextPendingStage = %q on fully processed vehicle, want none", next)
	}
}

func TestProgress_Bounds(t *testing.T) {
	// 7 stages + 3 Mechanical sub-steps = 10 units. A fresh vehicle has only
	// New Arrival complete: round(100*1/10) = 10.
	st := Initialize("")
	if got := Progress(st); got != 10 {
		t.Errorf("fresh Progress = %d, want 10", got)
	}

	var err error
	for _, name := range []string{StageMechanical, StageDetailing, StagePhotos, StageTitle, StageLotReady, StageSold} {
		if st, err = CompleteStage(st, name, CompleteOpts{}); err != nil {
			t.Fatal(err)
		}
	}
	if got := Progress(st); got != 100 {
		t.Errorf("complete Progress = %d, want 100", got)
	}
}

func TestProgress_SubStepsAddUnits(t *testing.T) {
	st := Initialize("")
	var err error
	if st, err = ToggleSubStep(st, StageMechanical, "email-service"); err != nil {
		t.Fatal(err)
	}
	// New Arrival + one sub-step: round(100*2/10) = 20.
	if got := Progress(st); got != 20 {
		t.Errorf("Progress = %d, want 20", got)
	}

	// Completing Mechanical outright: stage unit + all three sub-step units.
	if st, err = CompleteStage(st, StageMechanical, CompleteOpts{}); err != nil {
		t.Fatal(err)
	}
	if got := Progress(st); got != 50 {
		t.Errorf("Progress = %d, want 50", got)
	}
}

func TestLotReadyEligibility_Table(t *testing.T) {
	build := func(mech, detail, photos, inHouse bool) State {
		st := Initialize("")
		var err error
		if mech {
			if st, err = CompleteStage(st, StageMechanical, CompleteOpts{}); err != nil {
				t.Fatal(err)
			}
		}
		if detail {
			if st, err = CompleteStage(st, StageDetailing, CompleteOpts{}); err != nil {
				t.Fatal(err)
			}
		}
		if photos {
			if st, err = CompleteStage(st, StagePhotos, CompleteOpts{}); err != nil {
				t.Fatal(err)
			}
		}
		if inHouse {
			st = ToggleTitleInHouse(st)
		}
		return st
	}

	tests := []struct {
		name        string
		mech, det   bool
		photos, ih  bool
		wantElig    bool
		wantMissing []string
	}{
		{"fresh", false, false, false, false, false, []string{StageMechanical, StageDetailing, StagePhotos, TitleInHouseLabel}},
		{"photos missing", true, true, false, true, false, []string{StagePhotos}},
		{"title not in-house", true, true, true, false, false, []string{TitleInHouseLabel}},
		{"all met", true, true, true, true, true, []string{}},
	}
	for _, tt := range tests {
		st := build(tt.mech, tt.det, tt.photos, tt.ih)
		got := LotReadyEligibility(st)
		if got.Eligible != tt.wantElig {
			t.Errorf("%s: eligible = %v, want %v", tt.name, got.Eligible, tt.wantElig)
		}
		if !reflect.DeepEqual(got.Missing, tt.wantMissing) {
			t.Errorf("%s: missing = %v, want %v", tt.name, got.Missing, tt.wantMissing)
		}
	}
}

func TestLotReadyEligibility_TitleCompletionAloneInsufficient(t *testing.T) {
	st := Initialize("")
	var err error
	for _, name := range []string{StageMechanical, StageDetailing, StagePhotos, StageTitle} {
		if st, err = CompleteStage(st, name, CompleteOpts{}); err != nil {
			t.Fatal(err)
		}
	}
	// Title is complete but the document is not in-house.
	got := LotReadyEligibility(st)
	if got.Eligible {
		t.Error("eligible without the title in-house")
	}
	if !reflect.DeepEqual(got.Missing, []string{TitleInHouseLabel}) {
		t.Errorf("missing = %v, want [%s]", got.Missing, TitleInHouseLabel)
	}
}

func TestOverview_OrderAndContent(t *testing.T) {
	st := Initialize("2025-06-10")
	st = ToggleTitleInHouse(st)

	views := Overview(st)
	if len(views) != len(Stages) {
		t.Fatalf("Overview returned %d rows, want %d", len(views), len(Stages))
	}
	for i, v := range views {
		if v.Name != Stages[i].Name {
			t.Errorf("row %d = %q, want %q", i, v.Name, Stages[i].Name)
		}
	}
	if !views[0].Completed {
		t.Error("New Arrival row not completed")
	}
	title := views[4]
	if title.Name != StageTitle || !title.InHouse || !title.Completed {
		t.Errorf("Title row = %+v", title)
	}
}
