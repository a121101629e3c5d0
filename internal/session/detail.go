package session

import (
	"github.com/abelbrown/suss/internal/config"
	"github.com/abelbrown/suss/internal/dataset"
)

// DefaultMaxPoints caps the rows the timeline draws.
const DefaultMaxPoints = 10000

// ChooseResolution picks the timeline level of detail for ds. Small
// datasets are drawn event by event; otherwise the second level is used
// while the first level stays under the high-detail threshold.
func ChooseResolution(ds dataset.Dataset, cfg config.DetailConfig) (dataset.Resolution, error) {
	if ds.Count() <= cfg.FullThreshold {
		return dataset.FullResolution, nil
	}
	top, err := ds.Flatten(1)
	if err != nil {
		return 0, err
	}
	if top.Len() <= cfg.HighDetailThreshold {
		return 2, nil
	}
	return 1, nil
}

// Downsample keeps every n/maxPoints-th row of v so that at most about
// maxPoints rows remain. maxPoints <= 0 means DefaultMaxPoints.
func Downsample(v dataset.FlatView, maxPoints int) dataset.FlatView {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	step := max(1, v.Len()/maxPoints)
	if step == 1 {
		return v
	}
	return v.Select(0, v.Len(), step)
}

// Timeline flattens the current snapshot at the chosen resolution and
// downsamples it for drawing.
func (s *Session) Timeline(cfg config.DetailConfig, maxPoints int) (dataset.FlatView, dataset.Resolution, error) {
	ds := s.Dataset()
	res, err := ChooseResolution(ds, cfg)
	if err != nil {
		return dataset.FlatView{}, 0, err
	}
	v, err := ds.Flatten(res)
	if err != nil {
		return dataset.FlatView{}, 0, err
	}
	return Downsample(v, maxPoints), res, nil
}
