// Package history keeps the linear undo record of a curation session.
//
// The stack is append-only with truncation: Push adds a snapshot on top,
// Pop removes it again. There is no redo; pushing after an undo simply
// starts a new line of history.
package history

import (
	"errors"
	"fmt"
	"slices"

	"github.com/abelbrown/suss/internal/dataset"
)

// LoadAction is the action name of the root entry.
const LoadAction = "load"

// ErrEmptyHistory is returned by Pop when only the load entry remains.
var ErrEmptyHistory = errors.New("nothing left to undo")

// Entry is one step of history: the action that produced a snapshot, and the snapshot.
type Entry struct {
	Action  string
	Dataset dataset.Dataset
}

// Title renders the entry for a history listing.
func (e Entry) Title() string {
	n := 0
	if e.Dataset != nil {
		n = e.Dataset.Len()
	}
	return fmt.Sprintf("%s (n=%d)", e.Action, n)
}

// Stack is the undo stack. It is never empty: index 0 holds the load entry.
// Not safe for concurrent use.
type Stack struct {
	entries []Entry
}

// New returns a stack whose root is the loaded snapshot.
func New(load dataset.Dataset) *Stack {
	return &Stack{entries: []Entry{{Action: LoadAction, Dataset: load}}}
}

// Push appends a new current entry.
func (s *Stack) Push(action string, ds dataset.Dataset) {
	s.entries = append(s.entries, Entry{Action: action, Dataset: ds})
}

// Pop removes and returns the current entry. It fails with ErrEmptyHistory,
// leaving the stack unchanged, when only the load entry remains.
func (s *Stack) Pop() (Entry, error) {
	if len(s.entries) == 1 {
		return Entry{}, ErrEmptyHistory
	}
	last := len(s.entries) - 1
	top := s.entries[last]
	s.entries[last] = Entry{}
	s.entries = s.entries[:last]
	return top, nil
}

// TruncateToRoot discards every entry except the load entry.
func (s *Stack) TruncateToRoot() {
	clear(s.entries[1:])
	s.entries = s.entries[:1]
}

// Current returns the top entry.
func (s *Stack) Current() Entry {
	return s.entries[len(s.entries)-1]
}

// Root returns the load entry.
func (s *Stack) Root() Entry {
	return s.entries[0]
}

// At returns the entry at index i in push order.
func (s *Stack) At(i int) (Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries, including the load entry.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries, oldest first.
func (s *Stack) Entries() []Entry {
	return slices.Clone(s.entries)
}
