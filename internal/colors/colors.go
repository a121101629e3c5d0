// Package colors assigns display colors to cluster labels.
//
// The color of a label is a pure function of the label, so a cluster that
// survives an edit keeps its color while the map as a whole is rebuilt.
package colors

import (
	"math"

	"github.com/abelbrown/suss/internal/labels"
	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads consecutive labels around the hue circle.
const goldenAngle = 360 * 0.381966011250105

// lightness and chroma alternate in bands so neighbours on the hue circle
// that share a band stay apart.
var bands = [...]struct{ c, l float64 }{
	{0.55, 0.72},
	{0.70, 0.60},
	{0.45, 0.82},
}

// Map is an immutable label to color mapping.
type Map struct {
	colors map[labels.Label]string
}

// Assign builds the color map for a label set. The result depends only on
// the set's members.
func Assign(ls labels.Set) Map {
	m := Map{colors: make(map[labels.Label]string, ls.Len())}
	for _, l := range ls.Sorted() {
		m.colors[l] = For(l).Hex()
	}
	return m
}

// For returns the color of a single label.
func For(l labels.Label) colorful.Color {
	n := float64(l)
	hue := math.Mod(n*goldenAngle, 360)
	if hue < 0 {
		hue += 360
	}
	band := bands[int(math.Abs(n))%len(bands)]
	return colorful.Hcl(hue, band.c, band.l).Clamped()
}

// Get returns the hex color for l.
func (m Map) Get(l labels.Label) (string, bool) {
	c, ok := m.colors[l]
	return c, ok
}

// Len returns the number of labels with a color.
func (m Map) Len() int {
	return len(m.colors)
}

// Labels returns the labels that have a color.
func (m Map) Labels() labels.Set {
	ls := make([]labels.Label, 0, len(m.colors))
	for l := range m.colors {
		ls = append(ls, l)
	}
	return labels.FromSlice(ls)
}
