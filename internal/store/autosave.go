package store

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/logging"
	"github.com/abelbrown/suss/internal/otel"
)

// recoveryKeep is how many recovery snapshots survive a prune.
const recoveryKeep = 3

// Autosaver writes recovery snapshots of a session. Subscribe Handle to the
// dataset channel; it saves at most once per interval and remembers the
// latest snapshot so Flush can write it on exit.
//
// Handle and Flush run on the caller's goroutine.
type Autosaver struct {
	store   *Store
	name    string
	limiter *rate.Limiter
	journal *otel.Journal

	pending dataset.Dataset // newest snapshot not yet saved
	saves   int
}

// NewAutosaver saves recovery snapshots of name to st no more than once
// per interval.
func NewAutosaver(st *Store, name string, interval time.Duration, journal *otel.Journal) *Autosaver {
	return &Autosaver{
		store:   st,
		name:    name,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		journal: journal,
	}
}

// Handle is an events.Handler for the dataset channel.
func (a *Autosaver) Handle(e events.Event) {
	dc, ok := e.(events.DatasetChanged)
	if !ok {
		return
	}
	a.pending = dc.Current
	if !a.limiter.Allow() {
		return
	}
	if err := a.save(context.Background()); err != nil {
		logging.Warn("autosave failed", "name", a.name, "err", err)
	}
}

// Flush saves the pending snapshot regardless of the rate limit. It does
// nothing when every change has been saved.
func (a *Autosaver) Flush(ctx context.Context) error {
	if a.pending == nil {
		return nil
	}
	return a.save(ctx)
}

// Saves returns the number of snapshots written.
func (a *Autosaver) Saves() int { return a.saves }

func (a *Autosaver) save(ctx context.Context) error {
	start := time.Now()
	ds := a.pending
	id, err := a.store.SaveDataset(ctx, a.name, KindRecovery, ds)
	if err != nil {
		a.journal.Error(otel.KindStoreError, "store", err)
		return err
	}
	a.pending = nil
	a.saves++

	if _, err := a.store.PruneRecovery(ctx, a.name, recoveryKeep); err != nil {
		logging.Warn("prune recovery snapshots", "name", a.name, "err", err)
	}
	a.journal.Emit(otel.Event{
		Level:    otel.LevelDebug,
		Kind:     otel.KindStoreSave,
		Comp:     "store",
		Action:   string(KindRecovery),
		Clusters: ds.Len(),
		Count:    ds.Count(),
		Dur:      time.Since(start),
		Extra:    map[string]any{"id": id, "name": a.name},
	})
	return nil
}
