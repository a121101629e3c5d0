package events

// Handler receives published events.
type Handler func(Event)

type subscriber struct {
	id     int
	kinds  [3]bool
	fn     Handler
	active bool
}

// Bus fans events out to subscribers in registration order.
//
// Handlers may publish. Such nested events are queued and delivered after the
// current event has reached every subscriber, so each subscriber observes
// events in publish order. The outermost Publish returns only when the queue
// is drained.
//
// A Bus is meant to be used from a single goroutine and is not locked.
type Bus struct {
	subs     []*subscriber
	nextID   int
	queue    []Event
	draining bool
	closed   bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for the given kinds, or for every kind if none are
// given. The returned function cancels the subscription; it is idempotent.
// A subscriber only receives events published after it subscribed.
func (b *Bus) Subscribe(fn Handler, kinds ...Kind) (cancel func()) {
	if b.closed || fn == nil {
		return func() {}
	}
	s := &subscriber{id: b.nextID, fn: fn, active: true}
	b.nextID++
	if len(kinds) == 0 {
		s.kinds = [3]bool{true, true, true}
	}
	for _, k := range kinds {
		if k >= 0 && int(k) < len(s.kinds) {
			s.kinds[k] = true
		}
	}
	b.subs = append(b.subs, s)
	return func() { b.remove(s.id) }
}

// Publish delivers each event, in order, to every current subscriber of its
// kind. The events are queued together, so anything a handler publishes
// while they are delivered arrives after the last of them.
func (b *Bus) Publish(es ...Event) {
	if b.closed {
		return
	}
	for _, e := range es {
		if e != nil {
			b.queue = append(b.queue, e)
		}
	}
	if b.draining || len(b.queue) == 0 {
		return
	}

	b.draining = true
	defer func() {
		b.draining = false
		b.queue = nil
	}()
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
		b.dispatch(next)
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	return len(b.subs)
}

// Close drops every subscriber. Later publishes and subscriptions are ignored.
func (b *Bus) Close() {
	for _, s := range b.subs {
		s.active = false
	}
	b.subs = nil
	b.queue = nil
	b.closed = true
}

func (b *Bus) dispatch(e Event) {
	k := e.Kind()
	if k < 0 || int(k) >= 3 {
		return
	}
	// Snapshot so subscriptions made during delivery see only later events.
	subs := append([]*subscriber(nil), b.subs...)
	for _, s := range subs {
		if s.active && s.kinds[k] {
			s.fn(e)
		}
	}
}

func (b *Bus) remove(id int) {
	for i, s := range b.subs {
		if s.id == id {
			s.active = false
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
