package dataset

import "github.com/abelbrown/suss/internal/labels"

// FlatView is a per-event view of a snapshot produced by Flatten.
// The three slices are parallel.
type FlatView struct {
	Times     []float64
	Waveforms [][]float32
	Labels    []labels.Label
}

// Len returns the number of rows.
func (v FlatView) Len() int {
	return len(v.Times)
}

// Select returns rows start, start+step, ... below stop. A stop <= 0 or past
// the end means the end of the view; a step < 1 is treated as 1.
func (v FlatView) Select(start, stop, step int) FlatView {
	n := v.Len()
	if stop <= 0 || stop > n {
		stop = n
	}
	start = max(start, 0)
	step = max(step, 1)

	var out FlatView
	for i := start; i < stop; i += step {
		out.Times = append(out.Times, v.Times[i])
		out.Waveforms = append(out.Waveforms, v.Waveforms[i])
		out.Labels = append(out.Labels, v.Labels[i])
	}
	return out
}

// ForLabel returns the rows owned by cluster l.
func (v FlatView) ForLabel(l labels.Label) FlatView {
	var out FlatView
	for i, owner := range v.Labels {
		if owner == l {
			out.Times = append(out.Times, v.Times[i])
			out.Waveforms = append(out.Waveforms, v.Waveforms[i])
			out.Labels = append(out.Labels, owner)
		}
	}
	return out
}

// Span returns the first and last time in the view.
func (v FlatView) Span() (first, last float64, ok bool) {
	if v.Len() == 0 {
		return 0, 0, false
	}
	return v.Times[0], v.Times[v.Len()-1], true
}
