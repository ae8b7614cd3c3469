package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// MockPlayer simulates the device for tests. Playback never completes on
// its own; tests drive completion explicitly through Complete.
type MockPlayer struct {
	mu       sync.Mutex
	playing  bool
	lastData []byte
	done     func(err error)

	// Test configuration
	failPlay error

	// Test callbacks
	callbacks MockCallbacks

	// Metrics
	playCount atomic.Int64
	stopCount atomic.Int64
}

// MockCallbacks provides hooks for observing player calls.
type MockCallbacks struct {
	OnPlay func(data []byte)
	OnStop func()
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// FailNextPlay makes the next Play call return err.
func (mp *MockPlayer) FailNextPlay(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.failPlay = err
}

// SetCallbacks installs observation hooks.
func (mp *MockPlayer) SetCallbacks(cb MockCallbacks) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.callbacks = cb
}

// Play records the clip and holds the completion callback for the test
// to fire.
func (mp *MockPlayer) Play(data []byte, done func(err error)) error {
	mp.mu.Lock()

	if mp.failPlay != nil {
		err := mp.failPlay
		mp.failPlay = nil
		mp.mu.Unlock()
		return err
	}
	if len(data) == 0 {
		mp.mu.Unlock()
		return errors.New("audio data is empty")
	}

	mp.lastData = make([]byte, len(data))
	copy(mp.lastData, data)
	mp.done = done
	mp.playing = true
	onPlay := mp.callbacks.OnPlay
	mp.mu.Unlock()

	mp.playCount.Add(1)
	if onPlay != nil {
		onPlay(data)
	}
	return nil
}

// Stop drops the pending completion without firing it.
func (mp *MockPlayer) Stop() {
	mp.mu.Lock()
	mp.playing = false
	mp.done = nil
	onStop := mp.callbacks.OnStop
	mp.mu.Unlock()

	mp.stopCount.Add(1)
	if onStop != nil {
		onStop()
	}
}

// Complete finishes the current playback, firing the held callback with
// err. It reports whether a playback was pending.
func (mp *MockPlayer) Complete(err error) bool {
	mp.mu.Lock()
	done := mp.done
	mp.done = nil
	mp.playing = false
	mp.mu.Unlock()

	if done == nil {
		return false
	}
	done(err)
	return true
}

// Playing reports whether a clip is held.
func (mp *MockPlayer) Playing() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.playing
}

// LastData returns the bytes of the most recent Play call.
func (mp *MockPlayer) LastData() []byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.lastData
}

// PlayCount returns how many Play calls succeeded.
func (mp *MockPlayer) PlayCount() int64 {
	return mp.playCount.Load()
}

// StopCount returns how many Stop calls happened.
func (mp *MockPlayer) StopCount() int64 {
	return mp.stopCount.Load()
}
