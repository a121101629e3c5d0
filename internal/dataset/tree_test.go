package dataset

import (
	"errors"
	"testing"

	"github.com/abelbrown/suss/internal/labels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cluster builds a top-level cluster with n events starting at t0, grouped
// into sub-clusters of two events each.
func cluster(label labels.Label, t0 float64, n int) Node {
	var subs []Node
	for i := 0; i < n; i += 2 {
		var evs []Node
		for j := i; j < min(i+2, n); j++ {
			evs = append(evs, NewEvent(t0+float64(j), []float32{float32(label), float32(j)}))
		}
		subs = append(subs, NewCluster(0, evs...))
	}
	return NewCluster(label, subs...)
}

func threeClusters() *Tree {
	return New([]Node{cluster(1, 0, 4), cluster(2, 100, 2), cluster(3, 200, 3)})
}

func TestNewComputesLabelsAndCount(t *testing.T) {
	tr := threeClusters()
	assert.Equal(t, []labels.Label{1, 2, 3}, tr.Labels().Sorted())
	assert.Equal(t, 9, tr.Count())
	assert.Equal(t, 3, tr.Len())
	require.NoError(t, Validate(tr))
}

func TestNewClusterRepresentative(t *testing.T) {
	n := NewCluster(5,
		NewEvent(0, []float32{0, 2}),
		NewEvent(2, []float32{2, 4}),
	)
	assert.Equal(t, 2, n.Size())
	assert.InDelta(t, 1.0, n.Time, 1e-9)
	assert.Equal(t, []float32{1, 3}, n.Waveform)
}

func TestMergeNodes(t *testing.T) {
	tr := threeClusters()

	out, err := tr.MergeNodes(labels.Of(1, 2))
	require.NoError(t, err)

	assert.Equal(t, []labels.Label{3, 4}, out.Labels().Sorted())
	assert.Equal(t, tr.Count(), out.Count())
	require.NoError(t, Validate(out))

	merged, ok := out.(*Tree).Node(4)
	require.True(t, ok)
	assert.Len(t, merged.Children, 2)
	assert.Equal(t, 6, merged.Size())

	// receiver untouched
	assert.Equal(t, []labels.Label{1, 2, 3}, tr.Labels().Sorted())
}

func TestMergeNodesErrors(t *testing.T) {
	tr := threeClusters()

	_, err := tr.MergeNodes(labels.Of(1))
	assert.True(t, errors.Is(err, ErrTooFewLabels))

	_, err = tr.MergeNodes(labels.Of(1, 9))
	assert.True(t, errors.Is(err, ErrUnknownLabel))
}

func TestDeleteNodeComposes(t *testing.T) {
	tr := threeClusters()

	var ds Dataset = tr
	for _, l := range []labels.Label{1, 3} {
		var err error
		ds, err = ds.DeleteNode(l)
		require.NoError(t, err)
	}
	assert.Equal(t, []labels.Label{2}, ds.Labels().Sorted())
	assert.Equal(t, 2, ds.Count())

	_, err := ds.DeleteNode(1)
	assert.True(t, errors.Is(err, ErrUnknownLabel))
}

func TestMergeAfterDeleteReusesLabel(t *testing.T) {
	var ds Dataset = threeClusters()
	ds, err := ds.DeleteNode(3)
	require.NoError(t, err)
	ds, err = ds.MergeNodes(labels.Of(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []labels.Label{3}, ds.Labels().Sorted())
}

func TestFlatten(t *testing.T) {
	tr := threeClusters()

	full, err := tr.Flatten(FullResolution)
	require.NoError(t, err)
	assert.Equal(t, tr.Count(), full.Len())

	top, err := tr.Flatten(0)
	require.NoError(t, err)
	assert.Equal(t, 3, top.Len())

	sub, err := tr.Flatten(1)
	require.NoError(t, err)
	// 2 + 1 + 2 sub-clusters
	assert.Equal(t, 5, sub.Len())

	for i := 1; i < full.Len(); i++ {
		assert.LessOrEqual(t, full.Times[i-1], full.Times[i])
	}

	_, err = tr.Flatten(-2)
	assert.Error(t, err)
}

func TestFlatViewSelectAndForLabel(t *testing.T) {
	full, err := threeClusters().Flatten(FullResolution)
	require.NoError(t, err)

	every2 := full.Select(0, 0, 2)
	assert.Equal(t, 5, every2.Len())

	two := full.ForLabel(2)
	assert.Equal(t, 2, two.Len())
	first, last, ok := two.Span()
	require.True(t, ok)
	assert.Equal(t, 100.0, first)
	assert.Equal(t, 101.0, last)
}

func TestValidateRejectsDuplicateLabels(t *testing.T) {
	tr := New([]Node{cluster(1, 0, 2), cluster(1, 10, 2)})
	err := Validate(tr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
}
