// Package session owns the state of one curation session: the history of
// snapshots, the selection, the color map and the notification bus.
//
// # Edits
//
// Every structural edit runs the same sequence on the caller's goroutine:
//
//	transform -> validate -> push -> rebase selection -> assign colors
//	          -> publish dataset-changed -> publish selection-changed
//
// State is replaced before anything is published, so an observer reading
// the session from inside a handler (or from an animation frame between
// edits) always sees a complete transition. The animation driver is paused
// for the duration of the edit.
//
// # Errors
//
// User rejections wrap ErrRejected and touch nothing. Failed or invalid
// transforms come back as *InvariantError and are never published. Undo at
// the load entry is logged and reported as false.
//
// A Session is not safe for concurrent use. The UI drives it from the
// bubbletea update loop.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/suss/internal/animation"
	"github.com/abelbrown/suss/internal/colors"
	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/history"
	"github.com/abelbrown/suss/internal/labels"
	"github.com/abelbrown/suss/internal/logging"
	"github.com/abelbrown/suss/internal/otel"
	"github.com/abelbrown/suss/internal/selection"
)

// History action names. They are shown verbatim in the history list.
const (
	ActionMerge            = "merge"
	ActionDelete           = "delete node"
	ActionDeleteUnselected = "delete unselected node"
	ActionRestore          = "restored previous state"
)

const comp = "session"

// Option configures a Session.
type Option func(*Session)

// WithJournal sends edit records to the given event journal.
func WithJournal(j *otel.Journal) Option {
	return func(s *Session) { s.journal = j }
}

// WithDriver replaces the default animation driver.
func WithDriver(d *animation.Driver) Option {
	return func(s *Session) {
		if d != nil {
			s.driver = d
		}
	}
}

// Session is the aggregate injected into every view.
type Session struct {
	stack   *history.Stack
	tracker *selection.Tracker
	bus     *events.Bus
	colors  colors.Map
	driver  *animation.Driver
	journal *otel.Journal
	closed  bool
}

// New starts a session on the loaded snapshot, which becomes the
// undo root.
func New(ds dataset.Dataset, opts ...Option) (*Session, error) {
	if err := dataset.Validate(ds); err != nil {
		return nil, &InvariantError{Action: history.LoadAction, Err: err}
	}

	bus := events.NewBus()
	s := &Session{
		stack:   history.New(ds),
		tracker: selection.NewTracker(bus),
		bus:     bus,
		colors:  colors.Assign(ds.Labels()),
		driver:  animation.NewDriver(0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	logging.Info("session started", "clusters", ds.Len(), "events", ds.Count())
	s.journal.Emit(otel.Event{
		Level:    otel.LevelInfo,
		Kind:     otel.KindStoreLoad,
		Comp:     comp,
		Action:   history.LoadAction,
		Clusters: ds.Len(),
		Count:    ds.Count(),
		Depth:    1,
	})
	return s, nil
}

// Teardown drops every subscriber and stops the animation driver. Further
// commands return ErrClosed. Safe to call more than once.
func (s *Session) Teardown() {
	if s.closed {
		return
	}
	s.closed = true
	s.bus.Close()
	s.driver.Stop()
	logging.Info("session closed", "depth", s.stack.Len())
}

// Closed reports whether Teardown has run.
func (s *Session) Closed() bool { return s.closed }

// Reads. Each returns an immutable value.

// Dataset returns the current snapshot.
func (s *Session) Dataset() dataset.Dataset { return s.stack.Current().Dataset }

// Action returns the action name of the current snapshot.
func (s *Session) Action() string { return s.stack.Current().Action }

// Selected returns the selected labels.
func (s *Session) Selected() labels.Set { return s.tracker.Selected() }

// Highlighted returns the highlighted label, if any.
func (s *Session) Highlighted() labels.Optional { return s.tracker.Highlighted() }

// Colors returns the color map for the current snapshot.
func (s *Session) Colors() colors.Map { return s.colors }

// History returns the history entries, load entry first.
func (s *Session) History() []history.Entry { return s.stack.Entries() }

// Driver returns the animation driver views tick from.
func (s *Session) Driver() *animation.Driver { return s.driver }

// Subscribe registers fn for the given channels (all when none given).
func (s *Session) Subscribe(fn events.Handler, kinds ...events.Kind) (cancel func()) {
	return s.bus.Subscribe(fn, kinds...)
}

// Selection passthroughs. After Teardown they do nothing. Each change that
// reaches the bus is also journaled.

func (s *Session) SetSelected(ls labels.Set) {
	if !s.closed {
		s.selecting(func() { s.tracker.SetSelected(ls) })
	}
}

func (s *Session) Toggle(l labels.Label, on bool) {
	if !s.closed {
		s.selecting(func() { s.tracker.Toggle(l, on) })
	}
}

// SelectAll toggles between every current label and nothing.
func (s *Session) SelectAll() {
	if !s.closed {
		s.selecting(func() { s.tracker.SelectAll(s.Dataset().Labels()) })
	}
}

// Clear empties the selection and the highlight.
func (s *Session) Clear() {
	if s.closed {
		return
	}
	s.selecting(func() { s.tracker.Clear() })
	s.highlighted()
}

func (s *Session) SetHighlighted(h labels.Optional) {
	if !s.closed {
		s.tracker.SetHighlighted(h)
		s.highlighted()
	}
}

// selecting runs change and journals the selection if it moved.
func (s *Session) selecting(change func()) {
	before := s.tracker.Selected()
	change()
	after := s.tracker.Selected()
	if after.Equal(before) {
		return
	}
	s.journal.Emit(otel.Event{
		Level:  otel.LevelDebug,
		Kind:   otel.KindSelect,
		Comp:   comp,
		Labels: ints(after),
	})
}

func (s *Session) highlighted() {
	e := otel.Event{Level: otel.LevelDebug, Kind: otel.KindHighlight, Comp: comp}
	if l, ok := s.tracker.Highlighted().Get(); ok {
		e.Labels = []int{int(l)}
	}
	s.journal.Emit(e)
}

// Commands.

// Merge combines the selected clusters into one.
func (s *Session) Merge() error {
	if s.closed {
		return ErrClosed
	}
	sel := s.present()
	if sel.Len() < 2 {
		return s.reject(ActionMerge, ErrNotEnoughToMerge)
	}
	return s.edit(ActionMerge, selection.EditMerge, otel.KindMerge, sel, func(ds dataset.Dataset) (dataset.Dataset, error) {
		return ds.MergeNodes(sel)
	})
}

// Delete removes the selected clusters.
func (s *Session) Delete() error {
	if s.closed {
		return ErrClosed
	}
	doomed := s.present()
	if doomed.Empty() {
		return s.reject(ActionDelete, ErrNothingToDelete)
	}
	return s.deleteAll(ActionDelete, selection.EditDelete, otel.KindDelete, doomed)
}

// DeleteUnselected keeps only the selected clusters.
func (s *Session) DeleteUnselected() error {
	if s.closed {
		return ErrClosed
	}
	sel := s.present()
	doomed := s.Dataset().Labels().Minus(sel)
	if sel.Empty() || doomed.Empty() {
		return s.reject(ActionDeleteUnselected, ErrNothingToDelete)
	}
	return s.deleteAll(ActionDeleteUnselected, selection.EditDeleteUnselected, otel.KindDeleteUnselected, doomed)
}

// Undo pops the current snapshot. At the load entry it logs a warning and
// returns false.
func (s *Session) Undo() bool {
	if s.closed {
		return false
	}
	guard := s.driver.Pause()
	defer guard.Release()

	start := time.Now()
	popped, err := s.stack.Pop()
	if err != nil {
		logging.Warn("undo ignored", "err", err)
		s.journal.Warn(otel.KindEmptyHistory, comp, err.Error())
		return false
	}

	kind := selection.EditUndo
	if isDeleteUnselected(popped.Action) {
		kind = selection.EditUndoDeleteUnselected
	}
	s.apply(popped.Dataset, s.Dataset(), "undo "+popped.Action, kind, otel.KindUndo, labels.Set{}, start)
	return true
}

// Reset discards every edit and returns to the load entry.
func (s *Session) Reset() error {
	if s.closed {
		return ErrClosed
	}
	guard := s.driver.Pause()
	defer guard.Release()

	start := time.Now()
	prev := s.Dataset()
	s.stack.TruncateToRoot()
	s.apply(prev, s.Dataset(), "reset", selection.EditReset, otel.KindReset, labels.Set{}, start)
	return nil
}

// Restore pushes a copy of history entry i as a new edit. Entries are
// indexed load entry first, as returned by History.
func (s *Session) Restore(i int) error {
	if s.closed {
		return ErrClosed
	}
	entry, ok := s.stack.At(i)
	if !ok {
		return fmt.Errorf("%w: %d of %d", ErrNoSuchEntry, i, s.stack.Len())
	}
	return s.edit(ActionRestore, selection.EditRestore, otel.KindRestore, labels.Set{}, func(dataset.Dataset) (dataset.Dataset, error) {
		return entry.Dataset, nil
	})
}

// present returns the selected labels that exist in the current snapshot.
// Labels selected through SetSelected or Toggle need not exist.
func (s *Session) present() labels.Set {
	return s.tracker.Selected().Intersect(s.Dataset().Labels())
}

func (s *Session) deleteAll(action string, kind selection.EditKind, jk otel.EventKind, doomed labels.Set) error {
	if doomed.Len() > 1 {
		action += "s"
	}
	return s.edit(action, kind, jk, doomed, func(ds dataset.Dataset) (dataset.Dataset, error) {
		var err error
		for _, l := range doomed.Sorted() {
			if ds, err = ds.DeleteNode(l); err != nil {
				return nil, err
			}
		}
		return ds, nil
	})
}

// edit runs transform against the current snapshot and commits the result.
func (s *Session) edit(action string, kind selection.EditKind, jk otel.EventKind, involved labels.Set, transform func(dataset.Dataset) (dataset.Dataset, error)) error {
	guard := s.driver.Pause()
	defer guard.Release()

	start := time.Now()
	prev := s.Dataset()
	next, err := transform(prev)
	if err == nil {
		err = dataset.Validate(next)
	}
	if err != nil {
		if !errors.Is(err, dataset.ErrInvariant) {
			err = fmt.Errorf("%w: %w", dataset.ErrInvariant, err)
		}
		ierr := &InvariantError{Action: action, Err: err}
		logging.Error("edit discarded", "action", action, "err", err)
		s.journal.Emit(otel.Event{
			Level:  otel.LevelError,
			Kind:   otel.KindInvariant,
			Comp:   comp,
			Action: action,
			Labels: ints(involved),
			Err:    err.Error(),
		})
		return ierr
	}

	s.stack.Push(action, next)
	s.apply(prev, next, action, kind, jk, involved, start)
	return nil
}

// apply finishes a transition whose history change has been made: prev was
// current before, next is current now.
func (s *Session) apply(prev, next dataset.Dataset, action string, kind selection.EditKind, jk otel.EventKind, involved labels.Set, start time.Time) {
	changed := s.tracker.Rebase(prev, next, kind)
	s.colors = colors.Assign(next.Labels())

	logging.Info("edit", "action", action, "clusters", next.Len(), "selected", changed.Selected.Len(), "depth", s.stack.Len())
	s.journal.Emit(otel.Event{
		Level:    otel.LevelInfo,
		Kind:     jk,
		Comp:     comp,
		Action:   action,
		Labels:   ints(involved),
		Clusters: next.Len(),
		Count:    next.Count(),
		Depth:    s.stack.Len(),
		Dur:      time.Since(start),
	})

	// One batch, so a handler of the first that changes the selection is
	// heard after the rebased selection.
	s.bus.Publish(events.DatasetChanged{Current: next, Previous: prev, Action: action}, changed)
}

func (s *Session) reject(action string, err error) error {
	logging.Warn("rejected", "action", action, "err", err)
	s.journal.Warn(otel.KindRejected, comp, err.Error())
	return err
}

func isDeleteUnselected(action string) bool {
	return strings.HasPrefix(action, ActionDeleteUnselected)
}

func ints(ls labels.Set) []int {
	if ls.Empty() {
		return nil
	}
	out := make([]int, 0, ls.Len())
	for _, l := range ls.Sorted() {
		out = append(out, int(l))
	}
	return out
}
