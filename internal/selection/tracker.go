// Package selection tracks which clusters are selected and which one is
// highlighted, and decides how a selection carries across structural edits.
package selection

import (
	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/labels"
)

// EditKind names the structural edit that produced a new snapshot.
type EditKind string

const (
	EditMerge            EditKind = "merge"
	EditDelete           EditKind = "delete"
	EditDeleteUnselected EditKind = "delete-unselected"
	EditUndo             EditKind = "undo"
	EditReset            EditKind = "reset"
	EditRestore          EditKind = "restore"

	// EditUndoDeleteUnselected reverts a delete-unselected edit. The clusters
	// the user had kept stay selected.
	EditUndoDeleteUnselected EditKind = "undo-delete-unselected"
)

// Tracker holds the selection state. Observers never assign it directly;
// every change goes through a method and is published on the bus.
//
// Selection and highlight are independent: the highlighted label need not
// be selected. Labels unknown to the current snapshot are kept as inert
// state until the next edit prunes them.
type Tracker struct {
	bus         *events.Bus
	selected    labels.Set
	highlighted labels.Optional
}

// NewTracker returns a tracker with nothing selected or highlighted.
func NewTracker(bus *events.Bus) *Tracker {
	return &Tracker{bus: bus}
}

// Selected returns the current selection.
func (t *Tracker) Selected() labels.Set {
	return t.selected
}

// Highlighted returns the current highlight.
func (t *Tracker) Highlighted() labels.Optional {
	return t.highlighted
}

// SetSelected replaces the selection, publishing only if it changed.
func (t *Tracker) SetSelected(s labels.Set) {
	if s.Equal(t.selected) {
		return
	}
	t.replace(s)
}

// Toggle adds or removes one label. No-ops are silent.
func (t *Tracker) Toggle(l labels.Label, on bool) {
	switch {
	case on && !t.selected.Contains(l):
		t.replace(t.selected.With(l))
	case !on && t.selected.Contains(l):
		t.replace(t.selected.Without(l))
	}
}

// SelectAll toggles between everything in all and nothing.
func (t *Tracker) SelectAll(all labels.Set) {
	if t.selected.Equal(all) {
		t.replace(labels.Set{})
		return
	}
	t.replace(all)
}

// Clear empties the selection and the highlight, publishing on both channels.
func (t *Tracker) Clear() {
	t.replace(labels.Set{})
	t.SetHighlighted(labels.None)
}

// SetHighlighted replaces the highlight and always publishes, even when the
// value is unchanged, so observers can replay a highlight effect.
func (t *Tracker) SetHighlighted(h labels.Optional) {
	prev := t.highlighted
	t.highlighted = h
	t.publish(events.HighlightChanged{Highlighted: h, Previous: prev})
}

// Rebase recomputes the selection after prev was replaced by next and
// returns the resulting notification without publishing it. The caller
// publishes it after announcing the new snapshot, even if the selection is
// unchanged.
//
// After a delete-unselected edit everything that remains is selected. After
// any other edit the selection becomes the labels that exist in next and
// were not in prev: freshly created clusters. Selections on labels whose
// identity is uncertain are dropped.
func (t *Tracker) Rebase(prev, next dataset.Dataset, kind EditKind) events.SelectionChanged {
	surviving := next.Labels()

	var selected labels.Set
	switch kind {
	case EditDeleteUnselected:
		selected = surviving
	case EditUndoDeleteUnselected:
		selected = surviving.Intersect(prev.Labels())
	default:
		selected = surviving.Intersect(labels.Changed(prev, next))
	}

	old := t.selected
	t.selected = selected
	return events.SelectionChanged{Selected: selected, Previous: old}
}

func (t *Tracker) replace(s labels.Set) {
	old := t.selected
	t.selected = s
	t.publish(events.SelectionChanged{Selected: s, Previous: old})
}

func (t *Tracker) publish(e events.Event) {
	if t.bus != nil {
		t.bus.Publish(e)
	}
}
