package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/labels"
	"github.com/abelbrown/suss/internal/otel"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func cluster(l labels.Label, t0 float64, n int) dataset.Node {
	evs := make([]dataset.Node, n)
	for i := range evs {
		evs[i] = dataset.NewEvent(t0+float64(i)*0.5, []float32{float32(l), -float32(i), 0.25})
	}
	return dataset.NewCluster(l, evs...)
}

func sample() *dataset.Tree {
	nested := dataset.NewCluster(3, cluster(0, 30, 2), cluster(0, 40, 3))
	single := dataset.NewEvent(50, []float32{1.5}).Relabel(4)
	return dataset.New([]dataset.Node{cluster(1, 0, 3), cluster(2, 10, 2), nested, single})
}

func TestOpen(t *testing.T) {
	st := openTest(t)

	for _, table := range []string{"datasets", "nodes"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("%s table not created: %v", table, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	ds := sample()

	id, err := st.SaveDataset(ctx, "tetrode-7", KindLoad, ds)
	if err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected uuid id, got %q", id)
	}

	got, meta, err := st.LoadDataset(ctx, "tetrode-7")
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if meta.ID != id || meta.Kind != KindLoad || meta.Clusters != 4 || meta.Events != 11 {
		t.Errorf("unexpected meta: %+v", meta)
	}
	if !got.Labels().Equal(ds.Labels()) {
		t.Errorf("labels = %v, want %v", got.Labels(), ds.Labels())
	}
	if got.Count() != ds.Count() {
		t.Errorf("count = %d, want %d", got.Count(), ds.Count())
	}

	want, _ := ds.Flatten(dataset.FullResolution)
	have, _ := got.Flatten(dataset.FullResolution)
	if have.Len() != want.Len() {
		t.Fatalf("flattened %d rows, want %d", have.Len(), want.Len())
	}
	for i := range want.Times {
		if have.Times[i] != want.Times[i] || have.Labels[i] != want.Labels[i] {
			t.Fatalf("row %d: got (%v, %d), want (%v, %d)", i, have.Times[i], have.Labels[i], want.Times[i], want.Labels[i])
		}
		for j := range want.Waveforms[i] {
			if have.Waveforms[i][j] != want.Waveforms[i][j] {
				t.Fatalf("row %d waveform differs: %v vs %v", i, have.Waveforms[i], want.Waveforms[i])
			}
		}
	}

	n, _ := got.Node(3)
	if len(n.Children) != 2 || n.Size() != 5 {
		t.Errorf("nested cluster not rebuilt: %d children, size %d", len(n.Children), n.Size())
	}
}

func TestLoadLatestByName(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	if _, err := st.SaveDataset(ctx, "a", KindLoad, sample()); err != nil {
		t.Fatal(err)
	}
	smaller, _ := sample().DeleteNode(1)
	id, err := st.SaveDataset(ctx, "a", KindRecovery, smaller)
	if err != nil {
		t.Fatal(err)
	}

	got, meta, err := st.LoadDataset(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID != id || got.Len() != 3 {
		t.Errorf("expected latest save, got %+v", meta)
	}

	byID, _, err := st.LoadByID(ctx, id)
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if byID.Len() != 3 {
		t.Errorf("LoadByID returned %d clusters", byID.Len())
	}
}

func TestLoadNotFound(t *testing.T) {
	st := openTest(t)
	_, _, err := st.LoadDataset(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, _, err = st.LoadByID(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveEmptyName(t *testing.T) {
	st := openTest(t)
	if _, err := st.SaveDataset(context.Background(), "", KindLoad, sample()); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestListDatasets(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	for _, name := range []string{"x", "y", CuratedName("x")} {
		if _, err := st.SaveDataset(ctx, name, KindCurated, sample()); err != nil {
			t.Fatal(err)
		}
	}
	list, err := st.ListDatasets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 datasets, got %d", len(list))
	}
	if list[0].Name != "x-curated" {
		t.Errorf("expected newest first, got %q", list[0].Name)
	}
}

func TestCuratedName(t *testing.T) {
	if got := CuratedName("run1"); got != "run1-curated" {
		t.Errorf("got %q", got)
	}
	if got := CuratedName("run1-curated"); got != "run1-curated" {
		t.Errorf("suffix doubled: %q", got)
	}
}

func TestNodesSchemaHasNoCascade(t *testing.T) {
	st := openTest(t)

	var ddl string
	if err := st.db.QueryRow("SELECT sql FROM sqlite_master WHERE type='table' AND name='nodes'").Scan(&ddl); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(strings.ToUpper(ddl), "CASCADE") {
		t.Errorf("nodes table relies on a cascade that is never enforced:\n%s", ddl)
	}
	var fk int
	if err := st.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 0 {
		t.Errorf("foreign_keys = %d, node cleanup is expected to be explicit", fk)
	}
}

func TestPruneRecovery(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	if _, err := st.SaveDataset(ctx, "a", KindCurated, sample()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := st.SaveDataset(ctx, "a", KindRecovery, sample()); err != nil {
			t.Fatal(err)
		}
	}

	n, err := st.PruneRecovery(ctx, "a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("pruned %d, want 3", n)
	}

	list, _ := st.ListDatasets(ctx)
	if len(list) != 3 {
		t.Errorf("expected curated + 2 recovery, got %d", len(list))
	}
	var orphans int
	st.db.QueryRow("SELECT COUNT(*) FROM nodes WHERE dataset_id NOT IN (SELECT id FROM datasets)").Scan(&orphans)
	if orphans != 0 {
		t.Errorf("%d orphaned node rows", orphans)
	}
}

func TestWaveformEncoding(t *testing.T) {
	wf := []float32{0, -1.5, 3.25e-7, 42}
	b := encodeWaveform(wf)
	if len(b) != 16 {
		t.Fatalf("encoded %d bytes", len(b))
	}
	got, err := decodeWaveform(b)
	if err != nil {
		t.Fatal(err)
	}
	for i := range wf {
		if got[i] != wf[i] {
			t.Errorf("value %d: got %v want %v", i, got[i], wf[i])
		}
	}
	if _, err := decodeWaveform([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestRebuildRejectsBadParent(t *testing.T) {
	_, err := rebuild([]storedNode{{seq: 0, parent: 5, leaf: true}})
	if err == nil {
		t.Error("expected error")
	}
}

func TestAutosaverThrottles(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()
	a := NewAutosaver(st, "session", time.Hour, nil)

	ds := sample()
	next, _ := ds.DeleteNode(2)

	a.Handle(events.DatasetChanged{Current: ds})
	a.Handle(events.DatasetChanged{Current: next})
	a.Handle(events.SelectionChanged{})

	if a.Saves() != 1 {
		t.Fatalf("expected 1 save within interval, got %d", a.Saves())
	}
	got, meta, err := st.LoadDataset(ctx, "session")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Kind != KindRecovery || got.Len() != 4 {
		t.Errorf("first save should hold the first snapshot: %+v", meta)
	}

	if err := a.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	got, _, _ = st.LoadDataset(ctx, "session")
	if a.Saves() != 2 || got.Len() != 3 {
		t.Errorf("flush should save the pending snapshot: saves=%d len=%d", a.Saves(), got.Len())
	}

	if err := a.Flush(ctx); err != nil || a.Saves() != 2 {
		t.Errorf("second flush should be a no-op: err=%v saves=%d", err, a.Saves())
	}
}

func TestAutosaverJournalsSaves(t *testing.T) {
	st := openTest(t)
	ring := otel.NewRingBuffer(8)
	j := otel.NewNullJournal(otel.WithRing(ring))

	a := NewAutosaver(st, "s", time.Hour, j)
	a.Handle(events.DatasetChanged{Current: sample()})
	j.Close()

	ev, ok := ring.LastOf(otel.KindStoreSave)
	if !ok {
		t.Fatal("no store.save event")
	}
	if ev.Count != 11 || ev.Extra["name"] != "s" {
		t.Errorf("unexpected event: %+v", ev)
	}
}
