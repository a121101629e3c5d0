package main

import (
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/suss/internal/store"
)

const sampleJournal = `{"t":"2026-03-01T10:00:00Z","level":"info","kind":"store.load","comp":"session","session_id":"aaaa-1","clusters":3,"count":9,"depth":1}
{"t":"2026-03-01T10:00:01Z","level":"debug","kind":"state.select","comp":"session","session_id":"aaaa-1","labels":[1,2]}
not json
{"t":"2026-03-01T10:00:02Z","level":"info","kind":"edit.merge","comp":"session","session_id":"aaaa-1","action":"merge","labels":[1,2],"clusters":2,"depth":2,"dur_ms":0.42}

{"t":"2026-03-01T10:00:03Z","level":"warn","kind":"edit.rejected","comp":"session","session_id":"bbbb-2","action":"merge","err":"rejected: select at least two clusters"}
{"t":"2026-03-01T10:00:04Z","level":"error","kind":"store.error","comp":"store","session_id":"bbbb-2","err":"disk full"}
`

func all(eventRecord) bool { return true }

func TestReadTailLines(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleJournal), 2, all)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].ev.Kind != "edit.rejected" || lines[1].ev.Kind != "store.error" {
		t.Errorf("tail = %s, %s", lines[0].ev.Kind, lines[1].ev.Kind)
	}
	if !strings.Contains(string(lines[1].raw), `"disk full"`) {
		t.Errorf("raw line not kept: %s", lines[1].raw)
	}
}

func TestReadTailLinesSkipsGarbage(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleJournal), 100, all)
	if len(lines) != 5 {
		t.Errorf("got %d lines, want 5", len(lines))
	}
	if got := readTailLines(strings.NewReader(sampleJournal), 0, all); len(got) != 0 {
		t.Errorf("tail 0 should return nothing, got %d", len(got))
	}
}

func TestEventFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter eventFilter
		want   int
	}{
		{"none", eventFilter{}, 5},
		{"kind prefix", eventFilter{kind: "edit"}, 2},
		{"exact kind", eventFilter{kind: "state.select"}, 1},
		{"min level", eventFilter{level: "warn"}, 2},
		{"component", eventFilter{comp: "store"}, 1},
		{"session prefix", eventFilter{session: "bbbb"}, 2},
		{"combined", eventFilter{kind: "edit", session: "aaaa"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readTailLines(strings.NewReader(sampleJournal), 100, tt.filter.match)
			if len(got) != tt.want {
				t.Errorf("got %d lines, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	ev := eventRecord{
		Time:     time.Date(2026, 3, 1, 10, 0, 2, 0, time.UTC),
		Level:    "info",
		Kind:     "edit.merge",
		Comp:     "session",
		Action:   "merge",
		Labels:   []int{1, 2},
		Clusters: 2,
		Depth:    2,
		DurMs:    0.42,
	}
	got := formatEvent(ev)
	for _, want := range []string{"10:00:02.000", "INFO", "[session", "edit.merge", `"merge"`, "labels=[1 2]", "k=2", "depth=2", "(0.42ms)"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatEvent missing %q in %q", want, got)
		}
	}

	got = formatEvent(eventRecord{Kind: "store.error", Err: "disk full"})
	if !strings.Contains(got, "?") || !strings.Contains(got, "err=disk full") {
		t.Errorf("formatEvent = %q", got)
	}
}

func TestDurPrecision(t *testing.T) {
	tests := []struct {
		ms   float64
		want int
	}{
		{0.5, 2},
		{1, 1},
		{99.9, 1},
		{100, 0},
	}
	for _, tt := range tests {
		if got := durPrecision(tt.ms); got != tt.want {
			t.Errorf("durPrecision(%v) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestPrintMetas(t *testing.T) {
	var b strings.Builder
	if err := printMetas(&b, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "no saved datasets") {
		t.Errorf("empty listing = %q", b.String())
	}

	b.Reset()
	metas := []store.Meta{{
		ID:       "0123456789abcdef",
		Name:     "run1-curated",
		Kind:     store.KindCurated,
		Clusters: 4,
		Events:   120,
		Created:  time.Now(),
	}}
	if err := printMetas(&b, metas); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"NAME", "run1-curated", "curated", "120", "01234567"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("listing should shorten IDs")
	}
}
