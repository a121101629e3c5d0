package dataset

import (
	"fmt"
	"slices"

	"github.com/abelbrown/suss/internal/labels"
)

// Tree is the in-memory Dataset implementation: an ordered list of
// top-level clusters, each the root of an event hierarchy.
type Tree struct {
	nodes  []Node
	labels labels.Set
	count  int
}

var _ Dataset = (*Tree)(nil)

// New builds a snapshot from top-level clusters. The slice is copied.
// New does not reject duplicate labels; use Validate for that.
func New(nodes []Node) *Tree {
	t := &Tree{nodes: slices.Clone(nodes)}
	ls := make([]labels.Label, 0, len(nodes))
	for _, n := range nodes {
		ls = append(ls, n.Label)
		t.count += n.Size()
	}
	t.labels = labels.FromSlice(ls)
	return t
}

// Labels implements Dataset.
func (t *Tree) Labels() labels.Set { return t.labels }

// Nodes implements Dataset. The returned slice is a copy.
func (t *Tree) Nodes() []Node { return slices.Clone(t.nodes) }

// Count implements Dataset.
func (t *Tree) Count() int { return t.count }

// Len implements Dataset.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the top-level cluster carrying label l.
func (t *Tree) Node(l labels.Label) (Node, bool) {
	for _, n := range t.nodes {
		if n.Label == l {
			return n, true
		}
	}
	return Node{}, false
}

// MergeNodes implements Dataset. The merged cluster is appended last and
// labelled one above the highest label in the snapshot.
func (t *Tree) MergeNodes(ls labels.Set) (Dataset, error) {
	if ls.Len() < 2 {
		return nil, fmt.Errorf("merge %s: %w", ls, ErrTooFewLabels)
	}
	for _, l := range ls.Sorted() {
		if !t.labels.Contains(l) {
			return nil, fmt.Errorf("merge %s: %w %d", ls, ErrUnknownLabel, l)
		}
	}

	kept := make([]Node, 0, len(t.nodes)-ls.Len()+1)
	merged := make([]Node, 0, ls.Len())
	for _, n := range t.nodes {
		if ls.Contains(n.Label) {
			merged = append(merged, n)
		} else {
			kept = append(kept, n)
		}
	}
	kept = append(kept, NewCluster(t.nextLabel(), merged...))
	return New(kept), nil
}

// DeleteNode implements Dataset.
func (t *Tree) DeleteNode(l labels.Label) (Dataset, error) {
	if !t.labels.Contains(l) {
		return nil, fmt.Errorf("delete: %w %d", ErrUnknownLabel, l)
	}
	kept := make([]Node, 0, len(t.nodes)-1)
	for _, n := range t.nodes {
		if n.Label != l {
			kept = append(kept, n)
		}
	}
	return New(kept), nil
}

// Flatten implements Dataset. At FullResolution every event is emitted; at
// level k each top-level cluster contributes the nodes k levels below it,
// or its leaves if the hierarchy is shallower. Rows are ordered by time.
func (t *Tree) Flatten(res Resolution) (FlatView, error) {
	if res < FullResolution {
		return FlatView{}, fmt.Errorf("flatten: invalid resolution %d", int(res))
	}
	var rows []row
	for _, top := range t.nodes {
		rows = collect(rows, top, top.Label, int(res))
	}
	slices.SortStableFunc(rows, func(a, b row) int {
		switch {
		case a.time < b.time:
			return -1
		case a.time > b.time:
			return 1
		}
		return 0
	})

	v := FlatView{
		Times:     make([]float64, len(rows)),
		Waveforms: make([][]float32, len(rows)),
		Labels:    make([]labels.Label, len(rows)),
	}
	for i, r := range rows {
		v.Times[i] = r.time
		v.Waveforms[i] = r.waveform
		v.Labels[i] = r.label
	}
	return v, nil
}

func (t *Tree) nextLabel() labels.Label {
	next := labels.Label(1)
	for _, n := range t.nodes {
		if n.Label >= next {
			next = n.Label + 1
		}
	}
	return next
}

type row struct {
	time     float64
	waveform []float32
	label    labels.Label
}

// collect appends the rows for n at the given remaining depth. A negative
// depth means descend to the leaves.
func collect(rows []row, n Node, owner labels.Label, depth int) []row {
	if n.IsLeaf() || depth == 0 {
		return append(rows, row{time: n.Time, waveform: n.Waveform, label: owner})
	}
	for _, c := range n.Children {
		rows = collect(rows, c, owner, depth-1)
	}
	return rows
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree(n=%d, events=%d)", len(t.nodes), t.count)
}
