package debugger

import "errors"

// ErrDiscarded is returned by stepping operations once the program has
// set its sticky discard flag (spec.md §3: "Discard is sticky").
var ErrDiscarded = errors.New("debugger: program has been discarded")

// ErrNoSource is returned by operations that require SetSource to have
// succeeded first.
var ErrNoSource = errors.New("debugger: no source installed")

// ImmediateError wraps a failure compiling or evaluating an immediate-mode
// expression, keeping the fragment that failed alongside the underlying
// error for diagnostics.
type ImmediateError struct {
	Fragment string
	Err      error
}

func (e *ImmediateError) Error() string {
	return "debugger: immediate " + "\"" + e.Fragment + "\": " + e.Err.Error()
}

func (e *ImmediateError) Unwrap() error { return e.Err }
