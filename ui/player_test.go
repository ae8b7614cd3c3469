package ui

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero", 0, "0:00"},
		{"seconds only", 42 * time.Second, "0:42"},
		{"single digit seconds", 3*time.Minute + 7*time.Second, "3:07"},
		{"over an hour", 61*time.Minute + 5*time.Second, "61:05"},
		{"negative clamps to zero", -3 * time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		width    int
		filled   int
	}{
		{"empty", 0, 10, 0},
		{"half", 0.5, 10, 5},
		{"full", 1, 10, 10},
		{"above one clamps", 1.7, 10, 10},
		{"below zero clamps", -0.3, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.progress, tt.width)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("Expected %d filled cells, got %d", tt.filled, got)
			}
			if got := strings.Count(bar, "░"); got != tt.width-tt.filled {
				t.Errorf("Expected %d empty cells, got %d", tt.width-tt.filled, got)
			}
		})
	}

	if got := renderProgressBar(0.5, 3); got != "" {
		t.Errorf("Expected no bar below the minimum width, got %q", got)
	}
}

func TestPlayerLifecycle(t *testing.T) {
	p := newPlayerModel()
	if p.visible() {
		t.Error("Expected a new player to start hidden")
	}

	p, cmd := p.beginSynthesis("README.md")
	if cmd == nil {
		t.Error("Expected a spinner tick command when synthesis starts")
	}
	if p.state != playerSynthesizing {
		t.Errorf("Expected synthesizing state, got %v", p.state)
	}

	p, cmd = p.show(playerShownMsg{
		ref:      "/tmp/audio.mp3",
		title:    "README.md",
		deadline: time.Now().Add(30 * time.Second),
	})
	if cmd == nil {
		t.Error("Expected a countdown command when playback starts")
	}
	if p.state != playerPlaying {
		t.Errorf("Expected playing state, got %v", p.state)
	}
	if p.ref != "/tmp/audio.mp3" {
		t.Errorf("Expected ref to be retained, got %q", p.ref)
	}

	p = p.finish()
	if p.state != playerFinished {
		t.Errorf("Expected finished state, got %v", p.state)
	}

	p, _ = p.hide()
	if p.visible() {
		t.Error("Expected hide to remove the overlay")
	}

	p = p.finish()
	if p.state != playerHidden {
		t.Error("Expected finish on a hidden player to be a no-op")
	}
}

func TestPlayerFailAndExpiry(t *testing.T) {
	p := newPlayerModel()
	p, cmd := p.fail("audio device lost")
	if p.state != playerError {
		t.Errorf("Expected error state, got %v", p.state)
	}
	if cmd == nil {
		t.Error("Expected a linger command for the error overlay")
	}

	// An expiry from an earlier error must not hide a newer one.
	p, _ = p.update(playerErrorExpiredMsg{seq: p.seq - 1})
	if p.state != playerError {
		t.Error("Expected a stale expiry to be ignored")
	}

	p, _ = p.update(playerErrorExpiredMsg{seq: p.seq})
	if p.state != playerHidden {
		t.Error("Expected a matching expiry to hide the overlay")
	}
}

func TestPlayerView(t *testing.T) {
	p := newPlayerModel()
	if got := p.view(80); got != "" {
		t.Errorf("Expected no view while hidden, got %q", got)
	}

	p, _ = p.beginSynthesis("notes.md")
	view := p.view(80)
	if !strings.Contains(view, "Synthesizing") {
		t.Errorf("Expected a synthesis indicator, got %q", view)
	}
	if !strings.Contains(view, "notes.md") {
		t.Errorf("Expected the title, got %q", view)
	}

	if got := p.view(10); got != "" {
		t.Errorf("Expected no view in a too-narrow terminal, got %q", got)
	}

	p, _ = p.show(playerShownMsg{
		title:    "notes.md",
		deadline: time.Now().Add(30 * time.Second),
	})
	view = p.view(80)
	if !strings.Contains(view, glyphPlaying) {
		t.Errorf("Expected the playing glyph, got %q", view)
	}

	p = p.finish()
	view = p.view(80)
	if !strings.Contains(view, glyphFinished) {
		t.Errorf("Expected the finished glyph, got %q", view)
	}

	p, _ = p.fail("synthesis failed")
	view = p.view(80)
	if !strings.Contains(view, glyphError) {
		t.Errorf("Expected the error glyph, got %q", view)
	}
	if !strings.Contains(view, "synthesis failed") {
		t.Errorf("Expected the error text, got %q", view)
	}
}

func TestComposeOverlay(t *testing.T) {
	base := strings.Join([]string{"one", "two", "three", "four", "five", "six"}, "\n")
	box := "XX\nYY"

	out := composeOverlay(base, box, 20)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("Expected the line count to be preserved, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[3], "XX") {
		t.Errorf("Expected the box on the fourth line, got %q", lines[3])
	}
	if !strings.HasSuffix(lines[4], "YY") {
		t.Errorf("Expected the box on the fifth line, got %q", lines[4])
	}
	if lines[5] != "six" {
		t.Errorf("Expected the bottom line untouched, got %q", lines[5])
	}
	if lines[0] != "one" {
		t.Errorf("Expected lines above the box untouched, got %q", lines[0])
	}

	// A view shorter than the box stays as it is.
	if got := composeOverlay("one\ntwo", box, 20); got != "one\ntwo" {
		t.Errorf("Expected a too-short view to be left alone, got %q", got)
	}

	if got := composeOverlay(base, "", 20); got != base {
		t.Error("Expected an empty box to leave the view alone")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("a very long line of text", 10); !strings.HasSuffix(got, ellipsis) {
		t.Errorf("Expected an ellipsis tail, got %q", got)
	}
	if got := truncateLine("short", 10); got != "short" {
		t.Errorf("Expected short input unchanged, got %q", got)
	}
	if got := truncateLine("anything", 0); got != "" {
		t.Errorf("Expected empty output at zero width, got %q", got)
	}
}
