package audio

import (
	"errors"
	"testing"
)

// TestMockPlayer_PlayAndComplete tests the held-callback lifecycle.
func TestMockPlayer_PlayAndComplete(t *testing.T) {
	mp := NewMockPlayer()

	done := make(chan error, 1)
	err := mp.Play([]byte("clip"), func(err error) { done <- err })
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !mp.Playing() {
		t.Error("Expected Playing() true after Play")
	}
	if string(mp.LastData()) != "clip" {
		t.Errorf("Expected recorded data 'clip', got %q", mp.LastData())
	}
	select {
	case <-done:
		t.Fatal("Callback must not fire before Complete")
	default:
	}

	if !mp.Complete(nil) {
		t.Fatal("Complete should report a pending playback")
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil completion, got %v", err)
		}
	default:
		t.Fatal("Complete should have fired the callback")
	}
	if mp.Playing() {
		t.Error("Expected Playing() false after Complete")
	}
	if mp.Complete(nil) {
		t.Error("Second Complete should report nothing pending")
	}
}

// TestMockPlayer_StopDropsCallback tests that Stop never fires the held
// callback.
func TestMockPlayer_StopDropsCallback(t *testing.T) {
	mp := NewMockPlayer()

	fired := false
	if err := mp.Play([]byte("clip"), func(error) { fired = true }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	mp.Stop()

	if fired {
		t.Error("Stop must not fire the completion callback")
	}
	if mp.Playing() {
		t.Error("Expected Playing() false after Stop")
	}
	if mp.Complete(nil) {
		t.Error("Complete after Stop should report nothing pending")
	}
	if mp.StopCount() != 1 {
		t.Errorf("Expected stop count 1, got %d", mp.StopCount())
	}
}

// TestMockPlayer_FailNextPlay tests injected play failures.
func TestMockPlayer_FailNextPlay(t *testing.T) {
	mp := NewMockPlayer()
	boom := errors.New("device gone")

	mp.FailNextPlay(boom)
	if err := mp.Play([]byte("clip"), nil); !errors.Is(err, boom) {
		t.Errorf("Expected injected error, got %v", err)
	}
	if mp.Playing() {
		t.Error("Failed play should not mark the player as playing")
	}

	// The failure is consumed; the next play succeeds.
	if err := mp.Play([]byte("clip"), nil); err != nil {
		t.Errorf("Expected second play to succeed, got %v", err)
	}
	if mp.PlayCount() != 1 {
		t.Errorf("Expected play count 1, got %d", mp.PlayCount())
	}
}

// TestMockPlayer_EmptyData tests rejection of empty clips.
func TestMockPlayer_EmptyData(t *testing.T) {
	mp := NewMockPlayer()
	if err := mp.Play(nil, nil); err == nil {
		t.Error("Expected error for empty data")
	}
}

// TestMockPlayer_Callbacks tests the observation hooks.
func TestMockPlayer_Callbacks(t *testing.T) {
	mp := NewMockPlayer()

	var played []byte
	stops := 0
	mp.SetCallbacks(MockCallbacks{
		OnPlay: func(data []byte) { played = data },
		OnStop: func() { stops++ },
	})

	if err := mp.Play([]byte("abc"), nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	mp.Stop()

	if string(played) != "abc" {
		t.Errorf("Expected OnPlay to see 'abc', got %q", played)
	}
	if stops != 1 {
		t.Errorf("Expected 1 OnStop call, got %d", stops)
	}
}

// TestMockPlayer_ReplaceDropsPrevious tests that a second Play drops the
// first callback.
func TestMockPlayer_ReplaceDropsPrevious(t *testing.T) {
	mp := NewMockPlayer()

	firstFired := false
	if err := mp.Play([]byte("one"), func(error) { firstFired = true }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	secondFired := false
	if err := mp.Play([]byte("two"), func(error) { secondFired = true }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	mp.Complete(nil)
	if firstFired {
		t.Error("Replaced playback must not fire its callback")
	}
	if !secondFired {
		t.Error("Current playback should fire on Complete")
	}
	if string(mp.LastData()) != "two" {
		t.Errorf("Expected last data 'two', got %q", mp.LastData())
	}
}
