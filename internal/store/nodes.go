package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/labels"
)

// rootParent marks a top-level cluster in the parent column.
const rootParent = -1

type flatNode struct {
	seq    int
	parent int
	node   dataset.Node
}

// waveform returns what is persisted for the node. Inner nodes are
// recomputed from their children on load.
func (f flatNode) waveform() []float32 {
	if f.node.IsLeaf() {
		return f.node.Waveform
	}
	return nil
}

// flatten lists the hierarchy in preorder.
func flatten(tops []dataset.Node) []flatNode {
	var out []flatNode
	var walk func(n dataset.Node, parent int)
	walk = func(n dataset.Node, parent int) {
		seq := len(out)
		out = append(out, flatNode{seq: seq, parent: parent, node: n})
		for _, c := range n.Children {
			walk(c, seq)
		}
	}
	for _, n := range tops {
		walk(n, rootParent)
	}
	return out
}

type storedNode struct {
	seq      int
	parent   int
	label    int
	leaf     bool
	time     float64
	waveform []float32
}

// rebuild reverses flatten. Rows must be ordered by seq.
func rebuild(rows []storedNode) (*dataset.Tree, error) {
	children := make(map[int][]int, len(rows))
	var tops []int
	for i, r := range rows {
		if r.seq != i {
			return nil, fmt.Errorf("node sequence broken at %d", i)
		}
		if r.parent == rootParent {
			tops = append(tops, i)
			continue
		}
		if r.parent < 0 || r.parent >= i {
			return nil, fmt.Errorf("node %d: bad parent %d", i, r.parent)
		}
		children[r.parent] = append(children[r.parent], i)
	}

	var build func(i int) dataset.Node
	build = func(i int) dataset.Node {
		r := rows[i]
		if r.leaf {
			return dataset.NewEvent(r.time, r.waveform).Relabel(labels.Label(r.label))
		}
		kids := make([]dataset.Node, 0, len(children[i]))
		for _, c := range children[i] {
			kids = append(kids, build(c))
		}
		return dataset.NewCluster(labels.Label(r.label), kids...)
	}

	nodes := make([]dataset.Node, 0, len(tops))
	for _, i := range tops {
		nodes = append(nodes, build(i))
	}
	tree := dataset.New(nodes)
	if err := dataset.Validate(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func encodeWaveform(wf []float32) []byte {
	if len(wf) == 0 {
		return nil
	}
	buf := make([]byte, 0, 4*len(wf))
	for _, v := range wf {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func decodeWaveform(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("waveform blob of %d bytes", len(b))
	}
	if len(b) == 0 {
		return nil, nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}
