package audio

import (
	"testing"
	"time"
)

// devicePlayer opens the shared audio device, skipping the test on
// machines without one.
func devicePlayer(t *testing.T) *Player {
	t.Helper()
	p, err := NewPlayer()
	if err != nil {
		t.Skipf("No audio device available: %v", err)
	}
	return p
}

// wavBytes encodes a short test tone for playback tests.
func wavBytes(t *testing.T, dur time.Duration) []byte {
	t.Helper()
	data, err := EncodeWAV(sineClip(DeviceSampleRate, dur))
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	return data
}

// TestNewStream tests the stream duration arithmetic.
func TestNewStream(t *testing.T) {
	st := newStream(make([]byte, DeviceSampleRate*2))
	if st.duration != time.Second {
		t.Errorf("Expected 1s duration, got %v", st.duration)
	}

	st.release()
	if st.data != nil || st.reader != nil {
		t.Error("Release should drop the buffer references")
	}
}

// TestPlayer_RejectsJunk tests that undecodable data never reaches the
// device.
func TestPlayer_RejectsJunk(t *testing.T) {
	p := devicePlayer(t)

	err := p.Play([]byte("definitely not audio"), nil)
	if err != ErrUnknownEncoding {
		t.Errorf("Expected ErrUnknownEncoding, got %v", err)
	}
	if p.Playing() {
		t.Error("Failed play should leave the device idle")
	}
}

// TestPlayer_PlayAndComplete tests the natural end of a clip.
func TestPlayer_PlayAndComplete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping playback test in short mode")
	}
	p := devicePlayer(t)

	done := make(chan error, 1)
	if err := p.Play(wavBytes(t, 50*time.Millisecond), func(err error) {
		done <- err
	}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !p.Playing() {
		t.Error("Expected Playing() true right after Play")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil completion, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Completion callback never fired")
	}
	if p.Playing() {
		t.Error("Expected Playing() false after completion")
	}
}

// TestPlayer_StopDropsCallback tests that Stop silences the device
// without firing the completion callback.
func TestPlayer_StopDropsCallback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping playback test in short mode")
	}
	p := devicePlayer(t)

	done := make(chan error, 1)
	if err := p.Play(wavBytes(t, time.Second), func(err error) {
		done <- err
	}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	p.Stop()

	if p.Playing() {
		t.Error("Expected Playing() false after Stop")
	}
	select {
	case <-done:
		t.Error("Stop must not fire the completion callback")
	case <-time.After(300 * time.Millisecond):
	}
}

// TestPlayer_ReplaceDropsPrevious tests that starting a new clip cancels
// the old one silently.
func TestPlayer_ReplaceDropsPrevious(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping playback test in short mode")
	}
	p := devicePlayer(t)

	firstDone := make(chan error, 1)
	if err := p.Play(wavBytes(t, time.Second), func(err error) {
		firstDone <- err
	}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	secondDone := make(chan error, 1)
	if err := p.Play(wavBytes(t, 50*time.Millisecond), func(err error) {
		secondDone <- err
	}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	select {
	case <-secondDone:
	case <-time.After(3 * time.Second):
		t.Fatal("Replacement clip never completed")
	}
	select {
	case <-firstDone:
		t.Error("Replaced clip must not fire its callback")
	default:
	}
	p.Stop()
}
