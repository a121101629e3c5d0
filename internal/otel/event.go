// Package otel provides the structured event journal for suss.
//
// Every committed edit, rejection, selection change and save becomes one
// Event, written as a JSONL line by a Journal. A RingBuffer keeps the most
// recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"strings"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of a journal event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Structural edits
	KindMerge            EventKind = "edit.merge"
	KindDelete           EventKind = "edit.delete"
	KindDeleteUnselected EventKind = "edit.delete_unselected"
	KindUndo             EventKind = "edit.undo"
	KindReset            EventKind = "edit.reset"
	KindRestore          EventKind = "edit.restore"
	KindRejected         EventKind = "edit.rejected"
	KindInvariant        EventKind = "edit.invariant"
	KindEmptyHistory     EventKind = "edit.empty_history"

	// Selection state
	KindSelect    EventKind = "state.select"
	KindHighlight EventKind = "state.highlight"

	// Store events
	KindStoreLoad  EventKind = "store.load"
	KindStoreSave  EventKind = "store.save"
	KindStoreError EventKind = "store.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindRecovery EventKind = "sys.recovery"
	KindError    EventKind = "sys.error"

	// Trace events (SUSS_TRACE)
	KindMsgReceived EventKind = "trace.msg_received"
)

// Subsystem returns the part of the kind before the dot.
func (k EventKind) Subsystem() string {
	s, _, _ := strings.Cut(string(k), ".")
	return s
}

// Event is the universal journal record. Every field except Kind and Time
// is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // "session", "store", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // uuid, same for the entire app run
	Action    string         `json:"action,omitempty"`     // history action name
	Labels    []int          `json:"labels,omitempty"`     // cluster labels involved
	Clusters  int            `json:"clusters,omitempty"`   // top-level clusters after the event
	Count     int            `json:"count,omitempty"`      // events in the snapshot
	Depth     int            `json:"depth,omitempty"`      // history length after the event
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
