package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/suss/internal/animation"
	"github.com/abelbrown/suss/internal/config"
	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/labels"
	"github.com/abelbrown/suss/internal/logging"
	"github.com/abelbrown/suss/internal/otel"
	"github.com/abelbrown/suss/internal/session"
)

type focus int

const (
	focusClusters focus = iota
	focusHistory
)

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold *store.Store. Saving goes through the
// injected save command and reports back with SaveComplete.
type App struct {
	sess    *session.Session
	cfg     *config.Config
	save    func(ds dataset.Dataset) tea.Cmd
	journal *otel.Journal
	ring    *otel.RingBuffer

	clusters *clusterPane
	history  *historyPane
	timeline *timelinePane
	flash    *animation.Flash

	help   help.Model
	focus  focus
	notice string
	err    error
	width  int
	height int
	ready  bool
	debug  bool
}

// NewApp builds the UI around a running session. save may be nil, in which
// case the save key reports that saving is unavailable. journal and ring
// may be nil.
func NewApp(s *session.Session, cfg *config.Config, save func(ds dataset.Dataset) tea.Cmd, journal *otel.Journal, ring *otel.RingBuffer) App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a := App{
		sess:     s,
		cfg:      cfg,
		save:     save,
		journal:  journal,
		ring:     ring,
		clusters: newClusterPane(s),
		history:  newHistoryPane(s),
		timeline: newTimelinePane(s, cfg.Detail, cfg.UI.MaxPoints),
		flash:    animation.NewFlash(s.Driver().Interval()),
		help:     help.New(),
	}
	flash := a.flash
	s.Subscribe(func(events.Event) { flash.Trigger() }, events.KindHighlight)
	return a
}

// Init starts the frame clock.
func (a App) Init() tea.Cmd {
	return a.tick()
}

func (a App) tick() tea.Cmd {
	return tea.Tick(a.sess.Driver().Interval(), func(time.Time) tea.Msg {
		return FrameTick{}
	})
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, frame := msg.(FrameTick); !frame && a.journal.Tracing() {
		a.journal.Trace("ui", fmt.Sprintf("%T", msg))
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case FrameTick:
		if a.sess.Closed() {
			return a, nil
		}
		a.sess.Driver().Tick()
		a.flash.Step()
		return a, a.tick()

	case SaveComplete:
		if msg.Err != nil {
			a.err = fmt.Errorf("save %s: %w", msg.Name, msg.Err)
			return a, nil
		}
		a.notice = "saved " + msg.Name
		return a, nil
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""
	a.err = nil

	if a.debug {
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Debug):
			a.debug = false
		}
		return a, nil
	}

	s := a.sess
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll

	case key.Matches(msg, keys.Debug):
		a.debug = true

	case key.Matches(msg, keys.Focus):
		if a.focus == focusClusters {
			a.focus = focusHistory
		} else {
			a.focus = focusClusters
		}

	case key.Matches(msg, keys.Up):
		a.move(-1)

	case key.Matches(msg, keys.Down):
		a.move(1)

	case key.Matches(msg, keys.Toggle):
		if l, ok := a.clusters.current(); ok {
			s.Toggle(l, !s.Selected().Contains(l))
		}

	case key.Matches(msg, keys.SelectAll):
		s.SelectAll()

	case key.Matches(msg, keys.Clear):
		s.Clear()

	case key.Matches(msg, keys.Highlight):
		if l, ok := a.clusters.current(); ok {
			s.SetHighlighted(labels.Some(l))
		}

	case key.Matches(msg, keys.Merge):
		a.report(s.Merge())

	case key.Matches(msg, keys.DeleteUnselected):
		a.report(s.DeleteUnselected())

	case key.Matches(msg, keys.Delete):
		a.report(s.Delete())

	case key.Matches(msg, keys.Undo):
		if !s.Undo() {
			a.notice = "nothing left to undo"
		}

	case key.Matches(msg, keys.Reset):
		a.report(s.Reset())

	case key.Matches(msg, keys.Restore):
		if a.focus == focusHistory {
			a.report(s.Restore(a.history.index()))
			a.focus = focusClusters
		}

	case key.Matches(msg, keys.Save):
		if a.save == nil {
			a.notice = "saving is not available"
			return a, nil
		}
		a.notice = "saving…"
		return a, a.save(s.Dataset())
	}

	return a, nil
}

func (a *App) move(delta int) {
	if a.focus == focusHistory {
		a.history.move(delta)
		return
	}
	a.clusters.move(delta)
}

// report routes a command error to the notice bar (rejections) or the
// error bar (everything else).
func (a *App) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrRejected):
		a.notice = err.Error()
	default:
		a.err = err
		logging.Error("command failed", "err", err)
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.debug {
		return lipgloss.JoinVertical(lipgloss.Left,
			debugOverlay(a.ring, a.width, a.height-1),
			debugStatusBar(a.width),
		)
	}

	helpView := HelpStyle.Render(a.help.View(keys))
	bars := []string{}
	if a.err != nil {
		bars = append(bars, ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()))
	}
	if a.notice != "" {
		bars = append(bars, NoticeStyle.Width(a.width).Render(a.notice))
	}
	bars = append(bars, a.statusBar(), helpView)

	chrome := 0
	for _, b := range bars {
		chrome += lipgloss.Height(b)
	}
	contentH := max(a.height-chrome, 6)

	leftW := max(a.width/3, 28)
	rightW := max(a.width-leftW, 20)
	historyH := max(min(contentH/3, a.cfg.UI.HistoryRows+3), 3)
	clustersH := max(contentH-historyH, 3)
	waveH := 4
	timelineH := max(contentH-waveH, 3)

	clusterStyle, historyStyle := FocusedPane, Pane
	if a.focus == focusHistory {
		clusterStyle, historyStyle = Pane, FocusedPane
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		panel(clusterStyle, "Clusters", a.clusters.view(leftW-2, clustersH-3), leftW, clustersH),
		panel(historyStyle, "History", a.history.view(leftW-2, historyH-3, a.focus == focusHistory), leftW, historyH),
	)

	drv := a.sess.Driver()
	right := lipgloss.JoinVertical(lipgloss.Left,
		panel(Pane, "Timeline", a.timeline.view(rightW-2, timelineH-3, drv.Phase(), a.sess.Highlighted(), a.flash.Intensity()), rightW, timelineH),
		panel(Pane, "Waveform", a.waveform(rightW-2), rightW, waveH),
	)

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{content}, bars...)...)
}

func (a App) waveform(width int) string {
	l, ok := a.sess.Highlighted().Get()
	if !ok {
		if l, ok = a.clusters.current(); !ok {
			return ""
		}
	}
	c, _ := a.sess.Colors().Get(l)
	return waveformView(a.sess.Dataset(), l, c, width)
}

// statusBar renders the bottom status bar.
func (a App) statusBar() string {
	ds := a.sess.Dataset()
	parts := []string{
		StatusBarKey.Render("suss"),
		StatusBarText.Render(fmt.Sprintf("%d clusters", ds.Len())),
		StatusBarText.Render(fmt.Sprintf("%d events", ds.Count())),
		StatusBarText.Render(fmt.Sprintf("%d selected", a.sess.Selected().Len())),
		StatusBarText.Render(fmt.Sprintf("highlight %s", a.sess.Highlighted())),
		StatusBarText.Render(fmt.Sprintf("last: %s", a.sess.Action())),
	}
	return StatusBar.Width(a.width).Render(strings.Join(parts, "  "))
}

func panel(style lipgloss.Style, title, body string, width, height int) string {
	inner := lipgloss.JoinVertical(lipgloss.Left, PaneTitle.Render(title), body)
	return style.Width(max(width-2, 1)).Height(max(height-2, 1)).MaxHeight(height).Render(inner)
}

// Notice returns the notice bar text (for testing).
func (a App) Notice() string { return a.notice }

// Err returns the error bar error (for testing).
func (a App) Err() error { return a.err }
