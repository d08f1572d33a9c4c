package ui

import (
	"strings"
	"testing"

	"spvopt/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("optimizing", []string{"a.spv", "b.spv"}, events).(*progressModel)

	steps := []struct {
		ev   driver.Event
		file int
		want string
	}{
		{driver.Event{File: "a.spv", Stage: driver.StageDecode, Status: driver.StatusWorking}, 0, "decoding"},
		{driver.Event{File: "b.spv", Stage: driver.StageOptimize, Status: driver.StatusCached}, 1, "cached"},
		{driver.Event{File: "a.spv", Stage: driver.StageWrite, Status: driver.StatusDone}, 0, "done"},
		{driver.Event{File: "other.spv", Stage: driver.StageRead, Status: driver.StatusError}, 0, "done"},
	}
	for _, s := range steps {
		m.Update(eventMsg(s.ev))
		if got := m.items[s.file].status; got != s.want {
			t.Fatalf("after %+v: status %q, want %q", s.ev, got, s.want)
		}
	}
	if p := m.percent(); p != 1.0 {
		t.Fatalf("percent = %v, want 1", p)
	}

	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatalf("done message not handled")
	}
	view := m.View()
	if !strings.Contains(view, "done: optimizing") || !strings.Contains(view, "a.spv") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestProgressFromStageIsMonotonic(t *testing.T) {
	stages := []driver.Stage{driver.StageRead, driver.StageDecode, driver.StageOptimize, driver.StageEncode, driver.StageWrite}
	prev := 0.0
	for _, s := range stages {
		p := progressFromStage(s)
		if p <= prev || p >= 1 {
			t.Fatalf("stage %s: %v after %v", s, p, prev)
		}
		prev = p
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.spv", 20, "short.spv"},
		{"a/very/long/path/shader.spv", 10, "a/ve..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
