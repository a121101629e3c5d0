// Package animation drives the periodic frame counter observers use for
// rotating projections and highlight flashes.
//
// The driver does not own a timer. The host delivers ticks (in the TUI, a
// tea.Tick message) and the driver decides whether a frame advances. Edits
// suspend the driver through a Guard so no frame is rendered against a
// half-replaced session.
package animation

import (
	"math"
	"time"
)

const (
	// DefaultInterval matches a ~25 fps terminal refresh.
	DefaultInterval = 40 * time.Millisecond

	// DefaultPeriod is the number of frames in one full rotation.
	DefaultPeriod = 100
)

// Driver is a pausable frame counter. Not safe for concurrent use.
type Driver struct {
	interval time.Duration
	period   int
	frame    int
	pauses   int
	stopped  bool
}

// NewDriver returns a running driver. Non-positive arguments select the defaults.
func NewDriver(interval time.Duration, period int) *Driver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Driver{interval: interval, period: period}
}

// Interval returns the time between ticks.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Period returns the number of frames per rotation.
func (d *Driver) Period() int {
	return d.period
}

// Running reports whether ticks currently advance frames.
func (d *Driver) Running() bool {
	return d.pauses == 0 && !d.stopped
}

// Tick advances one frame if the driver is running.
func (d *Driver) Tick() (frame int, ok bool) {
	if !d.Running() {
		return d.frame, false
	}
	d.frame = (d.frame + 1) % d.period
	return d.frame, true
}

// Frame returns the current frame.
func (d *Driver) Frame() int {
	return d.frame
}

// Phase returns the rotation angle of the current frame in radians.
func (d *Driver) Phase() float64 {
	return 2 * math.Pi * float64(d.frame) / float64(d.period)
}

// Pause suspends the driver until the returned guard is released. Pauses
// nest; the driver resumes when the last guard is released.
func (d *Driver) Pause() *Guard {
	d.pauses++
	return &Guard{d: d}
}

// Stop halts the driver permanently.
func (d *Driver) Stop() {
	d.stopped = true
}

// Guard is a scoped pause. Release it with defer so the driver resumes on
// every exit path.
type Guard struct {
	d        *Driver
	released bool
}

// Release resumes the driver. Calling it more than once has no effect.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.d.pauses--
}
