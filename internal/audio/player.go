package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// The device runs at a fixed format; every clip is converted to it.
const (
	DeviceSampleRate = 44100
	deviceChannels   = 1
)

// The oto context can exist only once per process.
var (
	otoContext *oto.Context
	otoOnce    sync.Once
	otoErr     error
)

func deviceContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   DeviceSampleRate,
			ChannelCount: deviceChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready
		otoContext = ctx
	})
	return otoContext, otoErr
}

// stream keeps PCM data alive while the device reads from it. Releasing
// the reference too early causes static.
type stream struct {
	data     []byte
	reader   *bytes.Reader
	duration time.Duration
}

func newStream(pcm []byte) *stream {
	samples := len(pcm) / 2
	return &stream{
		data:     pcm,
		reader:   bytes.NewReader(pcm),
		duration: time.Duration(samples) * time.Second / time.Duration(DeviceSampleRate),
	}
}

func (s *stream) release() {
	s.data = nil
	s.reader = nil
}

// playback is one clip on the device.
type playback struct {
	player *oto.Player
	stream *stream
	cancel chan struct{}
	once   sync.Once
}

func (pb *playback) cancelWatch() {
	pb.once.Do(func() { close(pb.cancel) })
}

// Player drives the audio device. Play replaces whatever is currently
// sounding; the completion callback fires only on natural end of stream,
// never from Stop or replacement.
type Player struct {
	mu      sync.Mutex
	current *playback
}

// NewPlayer opens the audio device.
func NewPlayer() (*Player, error) {
	if _, err := deviceContext(); err != nil {
		return nil, err
	}
	return &Player{}, nil
}

// Play decodes, converts and starts a clip. done runs from a watcher
// goroutine after the device drains, never synchronously.
func (p *Player) Play(data []byte, done func(err error)) error {
	clip, err := Decode(data)
	if err != nil {
		return err
	}
	pcm, err := ResamplePCM16(clip.PCM, clip.SampleRate, DeviceSampleRate)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return errors.New("no samples to play")
	}

	ctx, err := deviceContext()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	st := newStream(pcm)
	pb := &playback{
		player: ctx.NewPlayer(st.reader),
		stream: st,
		cancel: make(chan struct{}),
	}
	p.current = pb
	pb.player.Play()

	go p.watch(pb, done)
	return nil
}

// Stop silences the device. No completion callback fires.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	pb := p.current
	p.current = nil

	pb.cancelWatch()
	pb.player.Pause()
	pb.player.Close()
	pb.stream.release()
}

// Playing reports whether a clip is on the device.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// watch waits out the clip and fires the completion callback. The clip
// duration covers the bulk of the wait; a short poll drains the device
// buffer tail.
func (p *Player) watch(pb *playback, done func(err error)) {
	timer := time.NewTimer(pb.stream.duration)
	defer timer.Stop()

	select {
	case <-pb.cancel:
		return
	case <-timer.C:
	}

	for pb.player.IsPlaying() {
		select {
		case <-pb.cancel:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}

	p.mu.Lock()
	select {
	case <-pb.cancel:
		p.mu.Unlock()
		return
	default:
	}
	if p.current == pb {
		p.current = nil
	}
	pb.cancelWatch()
	pb.player.Close()
	pb.stream.release()
	p.mu.Unlock()

	if done != nil {
		done(nil)
	}
}
