package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/suss/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing session stats and recent
// journal events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	subs := ring.SubsystemStats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Edits:      %d merge, %d delete, %d keep, %d undo",
		stats[otel.KindMerge], stats[otel.KindDelete], stats[otel.KindDeleteUnselected], stats[otel.KindUndo]))
	lines = append(lines, fmt.Sprintf("  Refused:    %d rejected, %d invariant, %d empty history",
		stats[otel.KindRejected], stats[otel.KindInvariant], stats[otel.KindEmptyHistory]))
	lines = append(lines, fmt.Sprintf("  State:      %d select, %d highlight",
		stats[otel.KindSelect], stats[otel.KindHighlight]))
	lines = append(lines, fmt.Sprintf("  Store:      %d saves, %d errors",
		stats[otel.KindStoreSave], stats[otel.KindStoreError]))
	if e, ok := ring.LastOf(otel.KindStoreSave); ok {
		lines = append(lines, fmt.Sprintf("  Last save:  %s ago", formatAge(time.Since(e.Time))))
	}
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events (%d edit, %d state, %d store)",
		ring.Len(), ring.Cap(), subs["edit"], subs["state"], subs["store"]))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Action != "" {
			line += "  " + truncateRunes(e.Action, 30)
		} else if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.Depth > 0 {
			line += fmt.Sprintf("  depth:%d", e.Depth)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := max(min(84, width-4), 20)

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// truncateRunes shortens s to at most n display cells.
func truncateRunes(s string, n int) string {
	return runewidth.Truncate(s, n, "…")
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
