// Package dataset defines the cluster dataset contract consumed by the
// curation engine, plus Tree, an immutable in-memory implementation.
//
// A Dataset is a snapshot. Transforms (MergeNodes, DeleteNode) return a new
// snapshot and never modify the receiver, so snapshots can be shared freely
// between the history stack, the session and any observer.
package dataset

import (
	"errors"
	"fmt"

	"github.com/abelbrown/suss/internal/labels"
)

var (
	// ErrTooFewLabels is returned by MergeNodes when fewer than two labels are given.
	ErrTooFewLabels = errors.New("at least two clusters are required to merge")

	// ErrUnknownLabel is returned when a transform names a label that is not in the snapshot.
	ErrUnknownLabel = errors.New("unknown cluster label")

	// ErrInvariant marks a snapshot that violates the dataset invariants.
	ErrInvariant = errors.New("dataset invariant violated")
)

// Resolution selects the level of detail for Flatten.
type Resolution int

// FullResolution flattens down to individual events.
const FullResolution Resolution = -1

func (r Resolution) String() string {
	if r == FullResolution {
		return "full"
	}
	return fmt.Sprintf("level %d", int(r))
}

// Dataset is an immutable clustering snapshot.
type Dataset interface {
	// Labels returns the set of top-level cluster labels.
	Labels() labels.Set

	// Nodes returns the top-level clusters, one per label.
	Nodes() []Node

	// Count returns the total number of underlying events.
	Count() int

	// Len returns the number of top-level clusters.
	Len() int

	// MergeNodes returns a snapshot where the given clusters are combined
	// under one new cluster.
	MergeNodes(ls labels.Set) (Dataset, error)

	// DeleteNode returns a snapshot without the given cluster.
	DeleteNode(l labels.Label) (Dataset, error)

	// Flatten returns a per-event view at the given level of detail.
	Flatten(res Resolution) (FlatView, error)
}

// Validate checks the invariants every snapshot must satisfy: one node per
// label with no duplicates, and an event count matching the node sizes.
func Validate(ds Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvariant)
	}
	nodes := ds.Nodes()
	seen := make(map[labels.Label]bool, len(nodes))
	total := 0
	for _, n := range nodes {
		if seen[n.Label] {
			return fmt.Errorf("%w: duplicate label %d", ErrInvariant, n.Label)
		}
		seen[n.Label] = true
		total += n.Size()
	}
	if ls := ds.Labels(); ls.Len() != len(nodes) {
		return fmt.Errorf("%w: %d labels for %d nodes", ErrInvariant, ls.Len(), len(nodes))
	}
	if total != ds.Count() {
		return fmt.Errorf("%w: count %d does not match %d events in nodes", ErrInvariant, ds.Count(), total)
	}
	return nil
}
