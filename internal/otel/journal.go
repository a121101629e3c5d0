package otel

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultQueue is the number of events that may wait for the writer before
// Emit starts dropping. A curation session produces a few events per
// keypress, so this only fills when the journal file stalls.
const DefaultQueue = 1024

// Option configures a Journal.
type Option func(*Journal)

// WithRing mirrors every written event into buf for the debug overlay.
func WithRing(buf *RingBuffer) Option {
	return func(j *Journal) { j.ring.Store(buf) }
}

// WithTrace enables Trace records (SUSS_TRACE / config "trace").
func WithTrace(on bool) Option {
	return func(j *Journal) { j.trace = on }
}

// WithQueue sets the writer queue length.
func WithQueue(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.queue = n
		}
	}
}

// Journal records what happened in one curation session as JSONL.
//
// Emit is called from the UI goroutine and never waits on the disk: events
// are handed to a writer goroutine that encodes them and feeds the ring.
// A nil *Journal accepts every call and records nothing, so packages can
// take one without guarding.
type Journal struct {
	sessionID string
	trace     bool
	queue     int

	ring atomic.Pointer[RingBuffer]
	ch   chan Event
	done chan struct{}

	// mu orders Emit against Close: Emit holds it shared while sending.
	mu     sync.RWMutex
	closed bool

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewJournal starts a journal writing to w. Close it to flush.
func NewJournal(w io.Writer, opts ...Option) *Journal {
	j := &Journal{sessionID: uuid.NewString(), queue: DefaultQueue, done: make(chan struct{})}
	for _, opt := range opts {
		opt(j)
	}
	j.ch = make(chan Event, j.queue)
	go j.write(json.NewEncoder(w))
	return j
}

// NewNullJournal returns a journal that keeps events only in its ring, if any.
func NewNullJournal(opts ...Option) *Journal {
	return NewJournal(io.Discard, opts...)
}

func (j *Journal) write(enc *json.Encoder) {
	defer close(j.done)
	for e := range j.ch {
		if err := enc.Encode(e); err != nil {
			j.dropped.Add(1)
			continue
		}
		if rb := j.ring.Load(); rb != nil {
			rb.Push(e)
		}
	}
}

// Emit stamps e with the session id (and the time, if unset) and queues it.
// When the queue is full or the journal is closed the event is counted as
// dropped instead.
func (j *Journal) Emit(e Event) {
	if j == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = j.sessionID

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.ch <- e:
		j.emitted.Add(1)
	default:
		j.dropped.Add(1)
	}
}

func (j *Journal) note(level Level, kind EventKind, comp, msg, errText string) {
	j.Emit(Event{Level: level, Kind: kind, Comp: comp, Msg: msg, Err: errText})
}

// Info records a lifecycle note.
func (j *Journal) Info(kind EventKind, comp, msg string) { j.note(LevelInfo, kind, comp, msg, "") }

// Warn records something the user tried that did not happen.
func (j *Journal) Warn(kind EventKind, comp, msg string) { j.note(LevelWarn, kind, comp, msg, "") }

// Error records a failure. A nil err records an empty message.
func (j *Journal) Error(kind EventKind, comp string, err error) {
	var text string
	if err != nil {
		text = err.Error()
	}
	j.note(LevelError, kind, comp, "", text)
}

// Tracing reports whether Trace records are kept.
func (j *Journal) Tracing() bool {
	return j != nil && j.trace
}

// Trace records a debug message when tracing is on.
func (j *Journal) Trace(comp, msg string) {
	if j.Tracing() {
		j.note(LevelDebug, KindMsgReceived, comp, msg, "")
	}
}

// SessionID returns the id stamped on every event.
func (j *Journal) SessionID() string {
	if j == nil {
		return ""
	}
	return j.sessionID
}

// Emitted returns the number of events accepted by Emit.
func (j *Journal) Emitted() uint64 {
	if j == nil {
		return 0
	}
	return j.emitted.Load()
}

// Dropped returns the number of events lost to a full queue, a closed
// journal or a failed write.
func (j *Journal) Dropped() uint64 {
	if j == nil {
		return 0
	}
	return j.dropped.Load()
}

// Close stops accepting events and waits until every queued event has been
// written. Safe to call more than once and concurrently with Emit.
func (j *Journal) Close() {
	if j == nil {
		return
	}
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.ch)
	j.mu.Unlock()
	<-j.done
}
