package dataset

import "github.com/abelbrown/suss/internal/labels"

// Node is one cluster in the hierarchy. Leaves are single events; inner
// nodes carry the mean time and waveform of the events beneath them.
//
// Nodes are values. Children and Waveform must not be modified after
// construction.
type Node struct {
	Label    labels.Label
	Time     float64
	Waveform []float32
	Children []Node

	size int
}

// NewEvent returns a leaf node for a single recorded event.
func NewEvent(t float64, waveform []float32) Node {
	return Node{Time: t, Waveform: waveform, size: 1}
}

// NewCluster returns an inner node whose representative time and waveform
// are the event-weighted means of its children.
func NewCluster(label labels.Label, children ...Node) Node {
	n := Node{Label: label, Children: children}
	var width int
	for _, c := range children {
		n.size += c.Size()
		width = max(width, len(c.Waveform))
	}
	if n.size == 0 {
		return n
	}

	wf := make([]float64, width)
	var t float64
	for _, c := range children {
		w := float64(c.Size())
		t += c.Time * w
		for i, v := range c.Waveform {
			wf[i] += float64(v) * w
		}
	}
	n.Time = t / float64(n.size)
	n.Waveform = make([]float32, width)
	for i, v := range wf {
		n.Waveform[i] = float32(v / float64(n.size))
	}
	return n
}

// Size returns the number of events at or below this node.
func (n Node) Size() int {
	if n.IsLeaf() {
		return 1
	}
	if n.size > 0 {
		return n.size
	}
	total := 0
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// IsLeaf reports whether the node is a single event.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Relabel returns a copy of the node carrying a different label.
func (n Node) Relabel(l labels.Label) Node {
	n.Label = l
	return n
}
