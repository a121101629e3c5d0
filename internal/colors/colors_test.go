package colors

import (
	"testing"

	"github.com/abelbrown/suss/internal/labels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignCoversExactlyTheLabels(t *testing.T) {
	m := Assign(labels.Of(1, 2, 3))
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Labels().Equal(labels.Of(1, 2, 3)))

	_, ok := m.Get(4)
	assert.False(t, ok)
}

func TestAssignIsOrderIndependent(t *testing.T) {
	a := Assign(labels.FromSlice([]labels.Label{5, 1, 9}))
	b := Assign(labels.Of(9, 5, 1))
	for _, l := range []labels.Label{1, 5, 9} {
		ca, _ := a.Get(l)
		cb, _ := b.Get(l)
		assert.Equal(t, ca, cb)
	}
}

func TestSurvivingLabelKeepsColor(t *testing.T) {
	before := Assign(labels.Of(1, 2, 3))
	after := Assign(labels.Of(3, 4))

	c3before, _ := before.Get(3)
	c3after, ok := after.Get(3)
	require.True(t, ok)
	assert.Equal(t, c3before, c3after)

	_, ok = after.Get(1)
	assert.False(t, ok, "removed labels drop out of the map")
}

func TestNeighbouringLabelsAreDistinct(t *testing.T) {
	for l := labels.Label(0); l < 50; l++ {
		d := For(l).DistanceCIEDE2000(For(l + 1))
		assert.Greater(t, d, 0.02, "labels %d and %d too similar", l, l+1)
	}
}

func TestHexFormat(t *testing.T) {
	m := Assign(labels.Of(-3, 7))
	for _, l := range []labels.Label{-3, 7} {
		c, ok := m.Get(l)
		require.True(t, ok)
		assert.Regexp(t, `^#[0-9a-f]{6}$`, c)
	}
}
