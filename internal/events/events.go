// Package events is the notification channel between the curation session
// and its observers.
//
// There are three logical channels, one per Kind. Publishing is synchronous:
// every subscriber has seen an event before Publish returns. Values carried by
// events are immutable snapshots (labels.Set, dataset.Dataset) and may be
// retained by observers.
package events

import (
	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/labels"
)

// Kind identifies a notification channel.
type Kind int

const (
	KindDataset Kind = iota
	KindSelection
	KindHighlight
)

func (k Kind) String() string {
	switch k {
	case KindDataset:
		return "dataset"
	case KindSelection:
		return "selection"
	case KindHighlight:
		return "highlight"
	}
	return "unknown"
}

// Event is one of DatasetChanged, SelectionChanged or HighlightChanged.
type Event interface {
	Kind() Kind
}

// DatasetChanged is published after the current snapshot was replaced.
type DatasetChanged struct {
	Current  dataset.Dataset
	Previous dataset.Dataset
	Action   string
}

// Kind implements Event.
func (DatasetChanged) Kind() Kind { return KindDataset }

// SelectionChanged carries the new and previous selection.
type SelectionChanged struct {
	Selected labels.Set
	Previous labels.Set
}

// Kind implements Event.
func (SelectionChanged) Kind() Kind { return KindSelection }

// HighlightChanged carries the new and previous highlighted label.
// New may equal Previous; a repeated highlight is still an event.
type HighlightChanged struct {
	Highlighted labels.Optional
	Previous    labels.Optional
}

// Kind implements Event.
func (HighlightChanged) Kind() Kind { return KindHighlight }
