package speech

import "testing"

// TestLevelString tests notification level names.
func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelInfo, "info"},
		{LevelSuccess, "success"},
		{LevelWarning, "warning"},
		{LevelError, "error"},
		{Level(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

// TestMemoryNotifier_LatestReplacesPerKey tests that same-key messages
// replace rather than stack.
func TestMemoryNotifier_LatestReplacesPerKey(t *testing.T) {
	n := NewMemoryNotifier()

	n.Notify(NotifySpeech, LevelInfo, "Synthesizing speech…")
	n.Notify(NotifySpeech, LevelSuccess, "Speaking")
	n.Notify(NotifyPlayback, LevelError, "Playback failed")

	note, ok := n.Latest(NotifySpeech)
	if !ok {
		t.Fatal("Expected a speech notification")
	}
	if note.Level != LevelSuccess || note.Message != "Speaking" {
		t.Errorf("Expected the latest speech message to win, got %+v", note)
	}

	note, ok = n.Latest(NotifyPlayback)
	if !ok || note.Level != LevelError {
		t.Errorf("Expected the playback error under its own key, got %+v", note)
	}

	if _, ok := n.Latest("unused"); ok {
		t.Error("Expected no notification for an unused key")
	}
}

// TestMemoryNotifier_History tests arrival-order recording.
func TestMemoryNotifier_History(t *testing.T) {
	n := NewMemoryNotifier()

	n.Notify("a", LevelInfo, "one")
	n.Notify("b", LevelInfo, "two")
	n.Notify("a", LevelInfo, "three")

	history := n.History()
	if len(history) != 3 {
		t.Fatalf("Expected 3 recorded notifications, got %d", len(history))
	}
	for i, want := range []string{"one", "two", "three"} {
		if history[i].Message != want {
			t.Errorf("History[%d]: expected %q, got %q", i, want, history[i].Message)
		}
	}
}

// TestNopNotifier tests that the no-op notifier accepts anything.
func TestNopNotifier(t *testing.T) {
	NopNotifier{}.Notify("any", LevelError, "discarded")
}
