package history

import (
	"errors"
	"testing"

	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/labels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(ls ...labels.Label) dataset.Dataset {
	nodes := make([]dataset.Node, 0, len(ls))
	for _, l := range ls {
		nodes = append(nodes, dataset.NewCluster(l, dataset.NewEvent(float64(l), []float32{1})))
	}
	return dataset.New(nodes)
}

func TestNewHasLoadRoot(t *testing.T) {
	root := snapshot(1, 2, 3)
	s := New(root)

	require.Equal(t, 1, s.Len())
	assert.Equal(t, LoadAction, s.Current().Action)
	assert.Same(t, root, s.Current().Dataset)
	assert.Equal(t, s.Root(), s.Current())
}

func TestPushGrowsByOne(t *testing.T) {
	s := New(snapshot(1, 2, 3))
	next := snapshot(3, 4)

	before := len(s.Entries())
	s.Push("merge", next)

	assert.Len(t, s.Entries(), before+1)
	assert.Equal(t, next.Labels(), s.Current().Dataset.Labels())
	assert.Equal(t, "merge", s.Current().Action)
}

func TestPopOnRootFails(t *testing.T) {
	s := New(snapshot(1))

	_, err := s.Pop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyHistory))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, LoadAction, s.Current().Action)
}

func TestPushPopRoundTrip(t *testing.T) {
	root := snapshot(1, 2)
	s := New(root)
	prior := s.Current()

	next := snapshot(2)
	s.Push("delete node", next)

	popped, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "delete node", popped.Action)
	assert.Same(t, next, popped.Dataset)

	assert.Equal(t, prior.Action, s.Current().Action)
	assert.Same(t, prior.Dataset, s.Current().Dataset)
}

func TestTruncateToRoot(t *testing.T) {
	root := snapshot(1, 2, 3)
	s := New(root)
	s.Push("merge", snapshot(3, 4))
	s.Push("delete node", snapshot(4))

	s.TruncateToRoot()
	assert.Equal(t, 1, s.Len())
	assert.Same(t, root, s.Current().Dataset)
}

func TestEntriesPushOrderAndCopy(t *testing.T) {
	s := New(snapshot(1, 2, 3))
	s.Push("merge", snapshot(3, 4))
	s.Push("delete node", snapshot(4))

	entries := s.Entries()
	actions := make([]string, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
	}
	assert.Equal(t, []string{"load", "merge", "delete node"}, actions)

	entries[0].Action = "mutated"
	assert.Equal(t, LoadAction, s.Root().Action)

	e, ok := s.At(1)
	require.True(t, ok)
	assert.Equal(t, "merge (n=2)", e.Title())
	_, ok = s.At(3)
	assert.False(t, ok)
}
