package workflow

import "time"

// Stages may be completed out of order: on a real lot "Photos" and
// "Mechanical" run in parallel. Order matters only for the status
// derivations and the lot-ready gate.

// CompleteOpts carries the optional inputs for CompleteStage.
type CompleteOpts struct {
	Notes string
}

// CompleteStage marks a stage complete, stamping its timestamp. Completing
// Mechanical also completes all its sub-steps (a coarse completion implies
// its parts are done). New Arrival is seeded at creation and is not a
// user-toggleable target. Returns a new State; st is never mutated.
func CompleteStage(st State, stageName string, opts CompleteOpts) (State, error) {
	stage, ok := StageByName(stageName)
	if !ok {
		return nil, invalidStage(stageName)
	}
	if stage.Name == StageNewArrival {
		return nil, invalidTransition(stageName, "New Arrival is completed at intake and cannot be toggled")
	}

	out := Clone(st)
	now := Timestamp(time.Now())
	rec := out[stage.Name]
	rec.Completed = true
	rec.CompletedAt = now
	if opts.Notes != "" {
		rec.Notes = opts.Notes
	}
	for _, sub := range rec.SubSteps {
		if !sub.Completed {
			sub.Completed = true
			sub.CompletedAt = now
		}
	}
	return out, nil
}

// UncompleteStage reverts a stage to incomplete, clearing its timestamp and
// notes. Un-completing Mechanical also resets its sub-steps, symmetric with
// CompleteStage. Same New Arrival restriction.
func UncompleteStage(st State, stageName string) (State, error) {
	stage, ok := StageByName(stageName)
	if !ok {
		return nil, invalidStage(stageName)
	}
	if stage.Name == StageNewArrival {
		return nil, invalidTransition(stageName, "New Arrival is completed at intake and cannot be toggled")
	}

	out := Clone(st)
	rec := out[stage.Name]
	rec.Completed = false
	rec.CompletedAt = ""
	rec.Notes = ""
	for _, sub := range rec.SubSteps {
		sub.Completed = false
		sub.CompletedAt = ""
	}
	return out, nil
}

// ToggleSubStep flips one sub-step. When the flip brings the stage's
// sub-steps to 100%, the parent stage auto-completes. The reverse does NOT
// hold: un-toggling a sub-step of a completed stage leaves the stage
// complete.
func ToggleSubStep(st State, stageName, subStepID string) (State, error) {
	stage, ok := StageByName(stageName)
	if !ok {
		return nil, invalidStage(stageName)
	}
	found := false
	for _, ss := range stage.SubSteps {
		if ss.ID == subStepID {
			found = true
			break
		}
	}
	if !found {
		return nil, invalidTransition(stageName, "stage has no sub-step "+subStepID)
	}

	out := Clone(st)
	rec := out[stage.Name]
	sub := rec.SubSteps[subStepID]
	if sub.Completed {
		sub.Completed = false
		sub.CompletedAt = ""
		return out, nil
	}
	sub.Completed = true
	sub.CompletedAt = Timestamp(time.Now())

	if !rec.Completed && allSubStepsComplete(rec) {
		rec.Completed = true
		rec.CompletedAt = sub.CompletedAt
	}
	return out, nil
}

// ToggleTitleInHouse flips the Title stage's in-house flag. Receiving the
// physical title is definitionally "title processing done", so setting the
// flag auto-completes the Title stage; clearing it does not revert the
// stage (same asymmetry as sub-steps).
func ToggleTitleInHouse(st State) State {
	out := Clone(st)
	rec := out[StageTitle]
	rec.InHouse = !rec.InHouse
	if rec.InHouse && !rec.Completed {
		rec.Completed = true
		rec.CompletedAt = Timestamp(time.Now())
		if rec.Notes == "" {
			rec.Notes = "Title in-house"
		}
	}
	return out
}

// MoveToLotReady completes the Lot Ready stage if the gate passes, otherwise
// fails with the missing conditions and no mutation.
func MoveToLotReady(st State) (State, error) {
	elig := LotReadyEligibility(st)
	if !elig.Eligible {
		return nil, &Error{Code: CodeIneligible, Stage: StageLotReady, Missing: elig.Missing}
	}
	out := Clone(st)
	rec := out[StageLotReady]
	rec.Completed = true
	rec.CompletedAt = Timestamp(time.Now())
	return out, nil
}

func allSubStepsComplete(rec *StageRecord) bool {
	for _, sub := range rec.SubSteps {
		if !sub.Completed {
			return false
		}
	}
	return true
}
