package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/provider"
	"github.com/dgnsrekt/murmur/internal/speech"
	"github.com/dgnsrekt/murmur/internal/store"
	"github.com/dgnsrekt/murmur/utils"
)

const (
	// cliSurfaceTTL keeps the terminal player surface alive longer than
	// any clip; the surface timer must never cut playback short.
	cliSurfaceTTL = 24 * time.Hour

	// watchSettle batches the event bursts editors emit on save into a
	// single utterance.
	watchSettle = 300 * time.Millisecond
)

// speaker wires a playback manager for one CLI invocation. It doubles as
// the manager's notifier so failures can unblock a waiting speak call.
type speaker struct {
	manager *speech.Manager
	cache   *speech.Cache
	synth   *store.DiskCache
	cfg     provider.Config
	out     io.Writer

	mu      sync.Mutex
	playing bool
	err     error
	done    chan struct{}
}

func newSpeaker(out io.Writer, cfg provider.Config) (*speaker, error) {
	dir := dataDir
	if dir == "" {
		var err error
		dir, err = store.DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	files, err := store.NewFSStore(dir)
	if err != nil {
		return nil, err
	}

	var synth *store.DiskCache
	if !noCache {
		synth = openSynthCache()
	}

	player, err := audio.NewPlayer()
	if err != nil {
		if synth != nil {
			_ = synth.Close()
		}
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}

	s := &speaker{
		cache: speech.NewCache(0, nil),
		synth: synth,
		cfg:   cfg,
		out:   out,
	}

	dispatchCfg := provider.DispatcherConfig{}
	if synth != nil {
		dispatchCfg.Cache = synth
	}

	s.manager = speech.NewManager(speech.Dependencies{
		Dispatcher: provider.NewDispatcher(dispatchCfg),
		Cache:      s.cache,
		Store:      files,
		Player:     player,
		Presenter:  &speech.TerminalPresenter{Out: out, AutoDismiss: cliSurfaceTTL},
		Notifier:   s,
		OnState:    s.stateChanged,
	})
	return s, nil
}

// openSynthCache opens the persistent synthesis cache. Failures degrade to
// uncached dispatch and are only logged.
func openSynthCache() *store.DiskCache {
	dir := cacheDir
	var err error
	if dir == "" {
		dir, err = store.DefaultCacheDir()
		if err != nil {
			log.Warn("synthesis cache unavailable", "error", err)
			return nil
		}
	}
	dc, err := store.NewDiskCache(dir, 0)
	if err != nil {
		log.Warn("synthesis cache unavailable", "error", err)
		return nil
	}
	return dc
}

func (s *speaker) close() {
	s.manager.Stop()
	if s.synth != nil {
		_ = s.synth.Close()
	}
}

// Notify prints manager notices. Errors that a blocked speak call will
// return are not printed here; the command reports them once.
func (s *speaker) Notify(_ string, level speech.Level, message string) {
	switch level {
	case speech.LevelError:
		if !s.fail(errors.New(message)) {
			fmt.Fprintln(s.out, "✗ "+message)
		}
	case speech.LevelWarning:
		fmt.Fprintln(s.out, "⚠ "+message)
	default:
		fmt.Fprintln(s.out, message)
	}
}

func (s *speaker) stateChanged(st speech.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st {
	case speech.StatePlaying:
		s.playing = true
	case speech.StateIdle:
		if s.playing {
			s.playing = false
			s.signalLocked()
		}
	}
}

// fail records the first error of the current speak call and reports
// whether anyone was waiting on it.
func (s *speaker) fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return false
	}
	if s.err == nil {
		s.err = err
	}
	s.signalLocked()
	return true
}

func (s *speaker) signalLocked() {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// speak resolves text to audio and blocks until playback finishes, the
// surface is dismissed, or synthesis fails.
func (s *speaker) speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.err = nil
	s.playing = false
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	s.manager.Speak(ctx, text, s.cfg)
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// speakFile reads, reduces and speaks a markdown file without waiting for
// completion. Watch mode relies on the manager superseding in-flight
// speech when the file changes again.
func (s *speaker) speakFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(s.out, "✗ unable to read %s: %v\n", path, err)
		return
	}
	text := utils.ExtractText(utils.RemoveFrontmatter(data))
	s.manager.Speak(ctx, text, s.cfg)
}

// speakAndWatch speaks path now and again on every change, until
// interrupted.
func (s *speaker) speakAndWatch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch %s: %w", path, err)
	}
	defer watcher.Close() //nolint:errcheck

	// Watch the directory: editors commonly replace the file on save,
	// which would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", path, err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	s.speakFile(ctx, path)

	var settle <-chan time.Time
	for {
		select {
		case <-interrupt:
			s.manager.Stop()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settle = time.After(watchSettle)

		case <-settle:
			settle = nil
			log.Debug("source changed, speaking again", "path", path)
			s.speakFile(ctx, path)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", werr)
		}
	}
}

// save exports the last synthesized clip as WAV.
func (s *speaker) save(text, path string) error {
	entry, ok := s.cache.Get(speech.Key(strings.TrimSpace(text)))
	if !ok {
		return errors.New("no synthesized audio to save")
	}
	clip, err := audio.Decode(entry.Bytes)
	if err != nil {
		return fmt.Errorf("unable to decode audio: %w", err)
	}
	wav, err := audio.EncodeWAV(clip)
	if err != nil {
		return fmt.Errorf("unable to encode audio: %w", err)
	}
	if err := os.WriteFile(path, wav, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write audio: %w", err)
	}
	fmt.Println("Wrote audio to:", path)
	return nil
}
