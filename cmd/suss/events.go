package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Labels    []int          `json:"labels"`
	Clusters  int            `json:"clusters"`
	Count     int            `json:"count"`
	Depth     int            `json:"depth"`
	DurMs     float64        `json:"dur_ms"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// eventFilter selects journal lines.
type eventFilter struct {
	kind    string
	level   string
	comp    string
	session string
}

var (
	eventsTail   int
	eventsFollow bool
	eventsJSON   bool
	eventsWhere  eventFilter

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Show the event journal",
		Args:  cobra.NoArgs,
		RunE:  runEvents,
	}
)

func init() {
	f := eventsCmd.Flags()
	f.IntVar(&eventsTail, "tail", 50, "number of recent lines to show")
	f.BoolVarP(&eventsFollow, "follow", "f", false, "follow mode (like tail -f)")
	f.StringVar(&eventsWhere.kind, "kind", "", "filter by event kind prefix (e.g. 'edit')")
	f.StringVar(&eventsWhere.level, "level", "", "minimum level: debug, info, warn, error")
	f.StringVar(&eventsWhere.comp, "comp", "", "filter by component name")
	f.StringVar(&eventsWhere.session, "session", "", "filter by session ID prefix")
	f.BoolVar(&eventsJSON, "json", false, "output raw JSON lines")
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.session != "" && !strings.HasPrefix(ev.SessionID, f.session) {
		return false
	}
	return true
}

// formatEvent renders one journal line for humans.
func formatEvent(ev eventRecord) string {
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-22s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.Action != "" {
		parts = append(parts, fmt.Sprintf("%q", ev.Action))
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if len(ev.Labels) > 0 {
		parts = append(parts, fmt.Sprintf("labels=%v", ev.Labels))
	}
	if ev.Clusters > 0 {
		parts = append(parts, fmt.Sprintf("k=%d", ev.Clusters))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Depth > 0 {
		parts = append(parts, fmt.Sprintf("depth=%d", ev.Depth))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func runEvents(cmd *cobra.Command, args []string) error {
	logPath := eventLogPath()
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event journal not found at %s (run a session first): %w", logPath, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	emit := func(l parsedLine) {
		if eventsJSON {
			fmt.Fprintln(out, string(l.raw))
			return
		}
		fmt.Fprintln(out, formatEvent(l.ev))
	}

	for _, l := range readTailLines(f, eventsTail, eventsWhere.match) {
		emit(l)
	}
	if !eventsFollow {
		return nil
	}

	// Follow mode: poll for new lines until interrupted.
	ctx := cmd.Context()
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if eventsWhere.match(ev) {
			emit(parsedLine{ev: ev, raw: line})
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) || n <= 0 {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
