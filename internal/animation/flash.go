package animation

import (
	"time"

	"github.com/charmbracelet/harmonica"
)

// Flash is a decaying highlight intensity. Trigger kicks it to full
// strength and a critically damped spring brings it back to rest.
type Flash struct {
	spring   harmonica.Spring
	value    float64
	velocity float64
}

// NewFlash returns a flash stepped once per interval.
func NewFlash(interval time.Duration) *Flash {
	if interval <= 0 {
		interval = DefaultInterval
	}
	fps := int(time.Second / interval)
	return &Flash{spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 8.0, 1.0)}
}

// Trigger restarts the flash at full intensity.
func (f *Flash) Trigger() {
	f.value = 1
	f.velocity = 0
}

// Step advances the spring one frame and returns the intensity in [0, 1].
func (f *Flash) Step() float64 {
	f.value, f.velocity = f.spring.Update(f.value, f.velocity, 0)
	if f.value < 0.01 {
		f.value, f.velocity = 0, 0
	}
	return f.Intensity()
}

// Intensity returns the current intensity clamped to [0, 1].
func (f *Flash) Intensity() float64 {
	return min(max(f.value, 0), 1)
}

// Active reports whether the flash is still visible.
func (f *Flash) Active() bool {
	return f.value > 0
}
