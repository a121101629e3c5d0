package animation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickWrapsAtPeriod(t *testing.T) {
	d := NewDriver(time.Millisecond, 3)
	for i := 0; i < 3; i++ {
		_, ok := d.Tick()
		require.True(t, ok)
	}
	assert.Equal(t, 0, d.Frame())

	d.Tick()
	assert.InDelta(t, 2*math.Pi/3, d.Phase(), 1e-9)
}

func TestDefaults(t *testing.T) {
	d := NewDriver(0, 0)
	assert.Equal(t, DefaultInterval, d.Interval())
	assert.Equal(t, DefaultPeriod, d.Period())
}

func TestPauseGuardNesting(t *testing.T) {
	d := NewDriver(0, 0)

	outer := d.Pause()
	inner := d.Pause()
	_, ok := d.Tick()
	assert.False(t, ok)

	inner.Release()
	inner.Release()
	assert.False(t, d.Running(), "outer guard still held")

	outer.Release()
	assert.True(t, d.Running())
	frame, ok := d.Tick()
	assert.True(t, ok)
	assert.Equal(t, 1, frame)
}

func TestGuardReleasedOnErrorPath(t *testing.T) {
	d := NewDriver(0, 0)
	failing := func() error {
		g := d.Pause()
		defer g.Release()
		return errors.New("boom")
	}
	require.Error(t, failing())
	assert.True(t, d.Running())
}

func TestGuardReleasedOnPanic(t *testing.T) {
	d := NewDriver(0, 0)
	func() {
		defer func() { _ = recover() }()
		g := d.Pause()
		defer g.Release()
		panic("boom")
	}()
	assert.True(t, d.Running())
}

func TestStop(t *testing.T) {
	d := NewDriver(0, 0)
	d.Stop()
	_, ok := d.Tick()
	assert.False(t, ok)
}

func TestFlashDecays(t *testing.T) {
	f := NewFlash(20 * time.Millisecond)
	assert.False(t, f.Active())

	f.Trigger()
	assert.Equal(t, 1.0, f.Intensity())

	prev := 1.0
	for i := 0; i < 200 && f.Active(); i++ {
		v := f.Step()
		assert.LessOrEqual(t, v, prev+1e-9)
		prev = v
	}
	assert.False(t, f.Active())
}
