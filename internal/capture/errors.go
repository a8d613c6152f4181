package capture

import (
	"errors"
	"fmt"
)

// Session construction failures. Every one of these aborts Open after a full
// rollback; no partially built session is ever returned.
var (
	// ErrNotCaptureDevice means the node does not report capture capability.
	ErrNotCaptureDevice = errors.New("not a video capture device")
	// ErrNoIOMethod means the device supports neither streaming nor
	// read/write I/O.
	ErrNoIOMethod = errors.New("no supported I/O method")
	// ErrNoFormat means enumeration produced no catalog-recognized encoding.
	ErrNoFormat = errors.New("cannot negotiate supported video format")
)

// SetupError wraps any failure during session construction.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string { return fmt.Sprintf("setup %s: %v", e.Stage, e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

func setupErr(stage string, err error) error {
	return &SetupError{Stage: stage, Err: err}
}

// FatalError ends the capture loop permanently; the session owner must tear
// the session down afterwards. Per-cycle I/O hiccups are not FatalErrors,
// they just produce no frame for the cycle.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("capture fatal: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

func fatalErr(err error) error {
	return &FatalError{Err: err}
}

// IsFatal reports whether err terminates the capture loop.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
