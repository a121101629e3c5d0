package session

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is the parent of every user-facing rejection. A rejected
	// command leaves history and selection untouched.
	ErrRejected = errors.New("action rejected")

	// ErrNotEnoughToMerge is returned by Merge with fewer than two clusters selected.
	ErrNotEnoughToMerge = fmt.Errorf("%w: not enough clusters selected to merge", ErrRejected)

	// ErrNothingToDelete is returned by Delete and DeleteUnselected when the
	// edit would remove nothing.
	ErrNothingToDelete = fmt.Errorf("%w: no clusters selected for deletion", ErrRejected)

	// ErrNoSuchEntry is returned by Restore for an out-of-range index.
	ErrNoSuchEntry = errors.New("no such history entry")

	// ErrClosed is returned by commands issued after Teardown.
	ErrClosed = errors.New("session closed")
)

// InvariantError reports an edit that was discarded because the transform
// failed or produced an invalid snapshot. The previous state stays current
// and nothing is published.
type InvariantError struct {
	Action string
	Err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s discarded: %v", e.Action, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
