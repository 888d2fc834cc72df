package listview

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common engine errors
var (
	ErrNotFound             = errors.New("record not found in view")
	ErrNotSelectable        = errors.New("record is not selectable in the current view")
	ErrTransitionNotOffered = errors.New("transition not offered by the current status")
	ErrTransitionInFlight   = errors.New("a transition is already running for this record")
	ErrDuplicateID          = errors.New("duplicate record identifier")
	ErrInvalidPartition     = errors.New("unknown view mode")
)

// FetchError is returned by Load when the collection could not be replaced.
// The store keeps its previous contents.
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PartialBatchFailure reports a bulk run in which some records failed.
// Records that succeeded are already committed.
type PartialBatchFailure struct {
	Action    string
	Succeeded int
	Failed    int
	Skipped   int
}

func (e *PartialBatchFailure) Error() string {
	msg := fmt.Sprintf("%s: %d succeeded, %d failed", e.Action, e.Succeeded, e.Failed)
	if e.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", e.Skipped)
	}
	return msg
}
