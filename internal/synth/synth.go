// Package synth generates deterministic spike datasets for demos and tests.
//
// Each top-level cluster gets its own spike template (a negative peak
// followed by a slower positive rebound). Sub-clusters jitter the template
// amplitude; events add Gaussian noise and land at random times over the
// recording.
package synth

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/labels"
)

// Params controls the shape of a generated dataset.
type Params struct {
	Seed         int64
	Clusters     int     // top-level clusters, labelled 1..Clusters
	SubClusters  int     // children per top-level cluster
	EventsPerSub int     // events per sub-cluster
	Samples      int     // waveform length
	Duration     float64 // recording length in seconds
	Noise        float64 // noise standard deviation relative to peak
}

// DefaultParams is a small recording that fits a terminal.
func DefaultParams() Params {
	return Params{
		Seed:         1,
		Clusters:     8,
		SubClusters:  4,
		EventsPerSub: 40,
		Samples:      32,
		Duration:     600,
		Noise:        0.08,
	}
}

// ErrBadParams is returned for non-positive sizes.
var ErrBadParams = errors.New("synth: clusters, sub-clusters, events and samples must be positive")

// Generate builds the dataset described by p. The same params always
// produce the same dataset.
func Generate(p Params) (*dataset.Tree, error) {
	if p.Clusters <= 0 || p.SubClusters <= 0 || p.EventsPerSub <= 0 || p.Samples <= 0 {
		return nil, ErrBadParams
	}
	if p.Duration <= 0 {
		p.Duration = DefaultParams().Duration
	}
	rng := rand.New(rand.NewSource(p.Seed))

	tops := make([]dataset.Node, 0, p.Clusters)
	for c := 1; c <= p.Clusters; c++ {
		tmpl := template(rng, p.Samples)
		subs := make([]dataset.Node, 0, p.SubClusters)
		for s := 0; s < p.SubClusters; s++ {
			gain := 0.85 + 0.3*rng.Float64()
			evs := make([]dataset.Node, p.EventsPerSub)
			times := make([]float64, p.EventsPerSub)
			for i := range times {
				times[i] = rng.Float64() * p.Duration
			}
			sort.Float64s(times)
			for i, t := range times {
				evs[i] = dataset.NewEvent(t, spike(rng, tmpl, gain, p.Noise))
			}
			subs = append(subs, dataset.NewCluster(0, evs...))
		}
		tops = append(tops, dataset.NewCluster(labels.Label(c), subs...))
	}
	return dataset.New(tops), nil
}

// template returns a unit spike shape with a random peak position and width.
func template(rng *rand.Rand, n int) []float64 {
	center := float64(n) * (0.3 + 0.1*rng.Float64())
	width := 1 + 2*rng.Float64()
	rebound := 0.2 + 0.3*rng.Float64()
	amp := 0.5 + rng.Float64()

	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		peak := math.Exp(-math.Pow((x-center)/width, 2))
		slow := math.Exp(-math.Pow((x-center-3*width)/(3*width), 2))
		out[i] = amp * (-peak + rebound*slow)
	}
	return out
}

func spike(rng *rand.Rand, tmpl []float64, gain, noise float64) []float32 {
	out := make([]float32, len(tmpl))
	for i, v := range tmpl {
		out[i] = float32(v*gain + rng.NormFloat64()*noise)
	}
	return out
}
