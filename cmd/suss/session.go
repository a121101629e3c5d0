package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/suss/internal/animation"
	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/logging"
	"github.com/abelbrown/suss/internal/otel"
	"github.com/abelbrown/suss/internal/session"
	"github.com/abelbrown/suss/internal/store"
	"github.com/abelbrown/suss/internal/ui"
)

// runSession curates ds in the TUI until the user quits. Snapshots are
// saved under name: explicit saves as name-curated, autosaves and crash
// snapshots as recovery versions of name.
func runSession(ctx context.Context, st *store.Store, name string, ds dataset.Dataset) (err error) {
	jf, err := os.OpenFile(eventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event journal: %w", err)
	}
	defer jf.Close()

	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	journal := otel.NewJournal(jf, otel.WithRing(ring), otel.WithTrace(cfg.Trace))
	defer func() {
		journal.Close()
		if d := journal.Dropped(); d > 0 {
			logging.Warn("journal events dropped", "dropped", d, "session", journal.SessionID())
		}
	}()
	journal.Info(otel.KindStartup, "main", "suss "+logging.Version+" "+name)

	driver := animation.NewDriver(time.Duration(cfg.UI.FrameMs)*time.Millisecond, cfg.UI.RotationPeriod)
	sess, err := session.New(ds, session.WithJournal(journal), session.WithDriver(driver))
	if err != nil {
		return err
	}
	defer sess.Teardown()

	var autosaver *store.Autosaver
	if cfg.Autosave.Enabled {
		autosaver = store.NewAutosaver(st, name, time.Duration(cfg.Autosave.IntervalSeconds)*time.Second, journal)
		sess.Subscribe(autosaver.Handle, events.KindDataset)
	}

	// A crash must not lose curation work: write what the session holds
	// before the error propagates.
	defer func() {
		if r := recover(); r != nil {
			recoverSnapshot(st, journal, name, sess)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	save := func(ds dataset.Dataset) tea.Cmd {
		return func() tea.Msg {
			curated := store.CuratedName(name)
			start := time.Now()
			id, err := st.SaveDataset(ctx, curated, store.KindCurated, ds)
			if err != nil {
				journal.Error(otel.KindStoreError, "main", err)
				return ui.SaveComplete{Name: curated, Err: err}
			}
			journal.Emit(otel.Event{
				Level:    otel.LevelInfo,
				Kind:     otel.KindStoreSave,
				Comp:     "main",
				Action:   string(store.KindCurated),
				Clusters: ds.Len(),
				Count:    ds.Count(),
				Dur:      time.Since(start),
				Extra:    map[string]any{"id": id, "name": curated},
			})
			logging.Info("saved", "name", curated, "id", id)
			return ui.SaveComplete{Name: curated, ID: id}
		}
	}

	lipgloss.SetHasDarkBackground(cfg.UI.Theme == "dark")
	app := ui.NewApp(sess, cfg, save, journal, ring)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	logging.Info("starting UI", "name", name, "clusters", ds.Len(), "events", ds.Count())
	if _, runErr := program.Run(); runErr != nil {
		logging.Error("application error", "err", runErr)
		recoverSnapshot(st, journal, name, sess)
		return runErr
	}

	if autosaver != nil {
		if err := autosaver.Flush(ctx); err != nil {
			logging.Warn("final autosave failed", "err", err)
		}
	}
	journal.Info(otel.KindShutdown, "main", fmt.Sprintf("depth %d", len(sess.History())))
	logging.Info("exiting normally")
	return nil
}

// recoverSnapshot saves the current snapshot as a recovery version of name.
func recoverSnapshot(st *store.Store, journal *otel.Journal, name string, sess *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := st.SaveDataset(ctx, name, store.KindRecovery, sess.Dataset())
	if err != nil {
		logging.Error("recovery save failed", "name", name, "err", err)
		journal.Error(otel.KindStoreError, "main", err)
		return
	}
	journal.Emit(otel.Event{
		Level:  otel.LevelWarn,
		Kind:   otel.KindRecovery,
		Comp:   "main",
		Action: sess.Action(),
		Depth:  len(sess.History()),
		Extra:  map[string]any{"id": id, "name": name},
	})
	logging.Warn("recovery snapshot saved", "name", name, "id", id)
}
