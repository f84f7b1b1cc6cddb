package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies engine failures.
type Code string

const (
	// CodeInvalidStage means an operation referenced a stage name outside
	// the fixed set.
	CodeInvalidStage Code = "INVALID_STAGE"
	// CodeInvalidTransition means the model disallows the attempted change
	// (e.g. toggling New Arrival).
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	// CodeIneligible means the lot-ready gate was not met.
	CodeIneligible Code = "INELIGIBLE"
	// CodeMalformedRecord means an ingested row failed the minimum contract
	// (missing or duplicate stock number).
	CodeMalformedRecord Code = "MALFORMED_RECORD"
)

// Error is the engine's failure value. Operations that fail perform no
// mutation; the caller's state is exactly as it was.
type Error struct {
	Code    Code
	Stage   string   // stage the operation targeted, when relevant
	Missing []string // unmet lot-ready conditions, for CodeIneligible
	Reason  string
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeIneligible:
		return fmt.Sprintf("workflow: not eligible for %s: missing %s", StageLotReady, strings.Join(e.Missing, ", "))
	case CodeInvalidStage:
		return fmt.Sprintf("workflow: unknown stage %q", e.Stage)
	default:
		return fmt.Sprintf("workflow: %s: %s", e.Code, e.Reason)
	}
}

// ErrCode extracts the engine code from err, or "" if err is not an engine
// failure.
func ErrCode(err error) Code {
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}

func invalidStage(name string) *Error {
	return &Error{Code: CodeInvalidStage, Stage: name}
}

func invalidTransition(stage, reason string) *Error {
	return &Error{Code: CodeInvalidTransition, Stage: stage, Reason: reason}
}
