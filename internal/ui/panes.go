package ui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/suss/internal/config"
	"github.com/abelbrown/suss/internal/dataset"
	"github.com/abelbrown/suss/internal/events"
	"github.com/abelbrown/suss/internal/history"
	"github.com/abelbrown/suss/internal/labels"
	"github.com/abelbrown/suss/internal/session"
)

// Panes are bus observers. Each keeps only what it derived from the last
// notification and reads the session for anything else, so a pane never
// holds state the session has already replaced.

// clusterPane lists the top-level clusters of the current snapshot.
type clusterPane struct {
	sess        *session.Session
	rows        []clusterRow
	cursor      int
	selected    labels.Set
	highlighted labels.Optional
}

type clusterRow struct {
	label labels.Label
	size  int
	color string
}

func newClusterPane(s *session.Session) *clusterPane {
	p := &clusterPane{sess: s, selected: s.Selected(), highlighted: s.Highlighted()}
	p.rebuild(s.Dataset())
	s.Subscribe(p.handle)
	return p
}

func (p *clusterPane) handle(e events.Event) {
	switch e := e.(type) {
	case events.DatasetChanged:
		p.rebuild(e.Current)
	case events.SelectionChanged:
		p.selected = e.Selected
	case events.HighlightChanged:
		p.highlighted = e.Highlighted
	}
}

func (p *clusterPane) rebuild(ds dataset.Dataset) {
	colors := p.sess.Colors()
	p.rows = p.rows[:0]
	for _, n := range ds.Nodes() {
		c, _ := colors.Get(n.Label)
		p.rows = append(p.rows, clusterRow{label: n.Label, size: n.Size(), color: c})
	}
	slices.SortFunc(p.rows, func(a, b clusterRow) int { return int(a.label) - int(b.label) })
	p.cursor = min(p.cursor, max(len(p.rows)-1, 0))
}

// current returns the label under the cursor.
func (p *clusterPane) current() (labels.Label, bool) {
	if len(p.rows) == 0 {
		return 0, false
	}
	return p.rows[p.cursor].label, true
}

func (p *clusterPane) move(delta int) {
	if len(p.rows) == 0 {
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.rows)-1)
}

func (p *clusterPane) view(width, height int) string {
	if len(p.rows) == 0 {
		return DimRow.Render("no clusters")
	}
	h, hasHighlight := p.highlighted.Get()
	start := scrollStart(p.cursor, len(p.rows), height)

	var b strings.Builder
	for i := start; i < len(p.rows) && i < start+height; i++ {
		r := p.rows[i]
		mark := "[ ]"
		if p.selected.Contains(r.label) {
			mark = SelectedMark.Render("[x]")
		}
		star := " "
		if hasHighlight && h == r.label {
			star = "*"
		}
		text := runewidth.Truncate(fmt.Sprintf("%s%4d  %d events", star, int(r.label), r.size), max(width-7, 1), "…")

		style := DimRow
		if p.selected.Contains(r.label) {
			style = NormalRow
		}
		if i == p.cursor {
			style = CursorRow
		}
		b.WriteString(mark + " " + swatch(r.color) + " " + style.Render(text))
		if i < len(p.rows)-1 && i < start+height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// historyPane lists history entries, most recent first.
type historyPane struct {
	sess    *session.Session
	entries []history.Entry
	cursor  int // 0 is the most recent entry
}

func newHistoryPane(s *session.Session) *historyPane {
	p := &historyPane{sess: s, entries: s.History()}
	s.Subscribe(p.handle, events.KindDataset)
	return p
}

func (p *historyPane) handle(events.Event) {
	p.entries = p.sess.History()
	p.cursor = 0
}

// index returns the cursor position as a History index (load entry first).
func (p *historyPane) index() int {
	return len(p.entries) - 1 - p.cursor
}

func (p *historyPane) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), len(p.entries)-1)
}

// titles returns the listing as shown, most recent first.
func (p *historyPane) titles() []string {
	out := make([]string, 0, len(p.entries))
	for i := len(p.entries) - 1; i >= 0; i-- {
		out = append(out, p.entries[i].Title())
	}
	return out
}

func (p *historyPane) view(width, height int, focused bool) string {
	titles := p.titles()
	start := scrollStart(p.cursor, len(titles), height)

	var lines []string
	for i := start; i < len(titles) && i < start+height; i++ {
		text := runewidth.Truncate(titles[i], max(width-2, 1), "…")
		switch {
		case focused && i == p.cursor:
			lines = append(lines, CursorRow.Render(text))
		case i == 0:
			lines = append(lines, NormalRow.Render(text))
		default:
			lines = append(lines, DimRow.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

// timelinePane draws event density over time for each selected cluster.
type timelinePane struct {
	sess      *session.Session
	detail    config.DetailConfig
	maxPoints int

	flat     dataset.FlatView
	res      dataset.Resolution
	err      error
	selected labels.Set
}

func newTimelinePane(s *session.Session, detail config.DetailConfig, maxPoints int) *timelinePane {
	p := &timelinePane{sess: s, detail: detail, maxPoints: maxPoints, selected: s.Selected()}
	p.recompute()
	s.Subscribe(p.handle, events.KindDataset, events.KindSelection)
	return p
}

func (p *timelinePane) handle(e events.Event) {
	switch e := e.(type) {
	case events.DatasetChanged:
		p.recompute()
	case events.SelectionChanged:
		p.selected = e.Selected
	}
}

func (p *timelinePane) recompute() {
	p.flat, p.res, p.err = p.sess.Timeline(p.detail, p.maxPoints)
}

const densityRamp = " .:-=+*#%@"

// view renders one strip per selected cluster. The sweep marker follows
// the animation phase; the highlighted strip brightens with flash.
func (p *timelinePane) view(width, height int, phase float64, highlighted labels.Optional, flash float64) string {
	if p.err != nil {
		return ErrorStyle.Render(p.err.Error())
	}
	if width < 12 || height < 2 {
		return ""
	}
	first, last, ok := p.flat.Span()
	if !ok {
		return DimRow.Render("no events")
	}

	stripW := width - 6
	sweep := int(phase / (2 * math.Pi) * float64(stripW))
	ruler := strings.Repeat(" ", 6+min(max(sweep, 0), stripW-1)) + "▼"
	lines := []string{DimRow.Render(fmt.Sprintf("%s  %.0fs–%.0fs", p.res, first, last)), ruler}

	colors := p.sess.Colors()
	h, hasHighlight := highlighted.Get()
	for _, l := range p.selected.Sorted() {
		if len(lines) >= height {
			break
		}
		rows := p.flat.ForLabel(l)
		if rows.Len() == 0 {
			continue
		}
		strip := densityStrip(rows.Times, first, last, stripW)
		c, _ := colors.Get(l)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(c))
		if hasHighlight && h == l {
			style = style.Bold(true)
			if flash > 0.3 {
				style = style.Reverse(true)
			}
		}
		lines = append(lines, fmt.Sprintf("%4d  %s", int(l), style.Render(strip)))
	}
	if len(lines) == 2 {
		lines = append(lines, DimRow.Render("select clusters to plot"))
	}
	return strings.Join(lines, "\n")
}

// densityStrip bins times into width columns over [first, last].
func densityStrip(times []float64, first, last float64, width int) string {
	bins := make([]int, width)
	span := last - first
	peak := 0
	for _, t := range times {
		i := 0
		if span > 0 {
			i = int((t - first) / span * float64(width-1))
		}
		i = min(max(i, 0), width-1)
		bins[i]++
		peak = max(peak, bins[i])
	}
	out := make([]byte, width)
	for i, n := range bins {
		level := 0
		if n > 0 {
			level = 1 + n*(len(densityRamp)-2)/peak
		}
		out[i] = densityRamp[min(level, len(densityRamp)-1)]
	}
	return string(out)
}

const sparkRamp = "▁▂▃▄▅▆▇█"

// sparkline renders a waveform resampled to width cells.
func sparkline(wf []float32, width int) string {
	if len(wf) == 0 || width <= 0 {
		return ""
	}
	lo, hi := wf[0], wf[0]
	for _, v := range wf {
		lo, hi = min(lo, v), max(hi, v)
	}
	ramp := []rune(sparkRamp)
	var b strings.Builder
	for i := 0; i < width; i++ {
		v := wf[i*len(wf)/width]
		level := 0
		if hi > lo {
			level = int(float32(len(ramp)-1) * (v - lo) / (hi - lo))
		}
		b.WriteRune(ramp[level])
	}
	return b.String()
}

// waveformView shows the representative waveform of the highlighted
// cluster, or of the cluster under the cursor when nothing is highlighted.
func waveformView(ds dataset.Dataset, l labels.Label, color string, width int) string {
	for _, n := range ds.Nodes() {
		if n.Label != l {
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		return fmt.Sprintf("%4d  %s", int(l), style.Render(sparkline(n.Waveform, max(width-6, 1))))
	}
	return ""
}

// scrollStart keeps cursor inside a window of height rows.
func scrollStart(cursor, n, height int) int {
	if height <= 0 || n <= height || cursor < height {
		return 0
	}
	return min(cursor-height+1, n-height)
}
