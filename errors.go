package bagdrop

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Failure categories. Every failure aborts the running sequence and restores
// the idle display; none of them is returned to the host as fatal.
var (
	// ErrCapture is reported when the snapshot provider fails or returns
	// no image.
	ErrCapture = errors.New("bagdrop: snapshot capture failed")
	// ErrClipNotFound is reported when a surface cannot resolve a clip name.
	ErrClipNotFound = errors.New("bagdrop: clip not found")
	// ErrEngineUnavailable is reported when a surface handle is missing.
	ErrEngineUnavailable = errors.New("bagdrop: animation engine unavailable")
	// ErrGeometryUnavailable is reported when the tracked region cannot be
	// measured, typically because it is no longer mounted.
	ErrGeometryUnavailable = errors.New("bagdrop: tracked region geometry unavailable")
	// ErrInvalidSchedule is returned by Schedule.Validate and Config.Validate.
	ErrInvalidSchedule = errors.New("bagdrop: invalid phase schedule")
	// ErrCancelled is reported when a running sequence is torn down by Cancel.
	ErrCancelled = errors.New("bagdrop: sequence cancelled")
)

// SequenceError records which run and phase failed and the operation that
// caused it.
type SequenceError struct {
	Run   uuid.UUID
	Phase Phase
	Op    string
	Err   error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("bagdrop: run %s: %s during %s: %v", e.Run, e.Op, e.Phase, e.Err)
}

func (e *SequenceError) Unwrap() error { return e.Err }

// wrapAs returns err unchanged when it already matches kind, and otherwise
// joins kind in front of it so errors.Is(result, kind) holds.
func wrapAs(kind, err error) error {
	if err == nil {
		return kind
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
