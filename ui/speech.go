package ui

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/murmur/internal/audio"
	"github.com/dgnsrekt/murmur/internal/provider"
	"github.com/dgnsrekt/murmur/internal/speech"
	"github.com/dgnsrekt/murmur/internal/store"
	"github.com/dgnsrekt/murmur/utils"
)

// Messages flowing from the playback manager into the program.

type (
	speechStateMsg  speech.State
	speechNoticeMsg speech.Notification

	playerShownMsg struct {
		ref      string
		title    string
		deadline time.Time
	}
	playerDismissedMsg struct{}

	speakIssuedMsg struct {
		title string
		err   error
	}
)

// programRelay forwards messages to the running bubbletea program. The
// manager's collaborators are constructed before the program exists, so
// messages sent early are queued and flushed on attach.
type programRelay struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

func (r *programRelay) Send(msg tea.Msg) {
	r.mu.Lock()
	if r.send == nil {
		r.pending = append(r.pending, msg)
		r.mu.Unlock()
		return
	}
	send := r.send
	r.mu.Unlock()
	send(msg)
}

func (r *programRelay) attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, msg := range pending {
		send(msg)
	}
}

// statusNotifier surfaces manager notifications in the status bar.
type statusNotifier struct {
	relay *programRelay
}

func (n statusNotifier) Notify(key string, level speech.Level, message string) {
	n.relay.Send(speechNoticeMsg{Key: key, Level: level, Message: message})
}

// overlayPresenter implements the manager's presentation port by driving
// the floating player overlay through program messages. The auto-dismiss
// timer lives here; the overlay's visible countdown is cosmetic.
type overlayPresenter struct {
	relay *programRelay

	// AutoDismiss overrides the surface lifetime. Zero means the default.
	AutoDismiss time.Duration

	mu      sync.Mutex
	current *overlayPresentation
}

type overlayPresentation struct {
	once        sync.Once
	timer       *time.Timer
	presenter   *overlayPresenter
	onDismissed func()
}

func (p *overlayPresenter) Show(ref, title string, onDismissed func()) speech.Presentation {
	ttl := p.AutoDismiss
	if ttl <= 0 {
		ttl = speech.DefaultAutoDismiss
	}

	p.mu.Lock()
	old := p.current
	pres := &overlayPresentation{presenter: p, onDismissed: onDismissed}
	pres.timer = time.AfterFunc(ttl, pres.Dismiss)
	p.current = pres
	p.mu.Unlock()

	if old != nil {
		old.Dismiss()
	}
	p.relay.Send(playerShownMsg{ref: ref, title: title, deadline: time.Now().Add(ttl)})
	return pres
}

func (pr *overlayPresentation) Dismiss() {
	pr.once.Do(func() {
		pr.timer.Stop()
		pr.presenter.clear(pr)
		if pr.onDismissed != nil {
			go pr.onDismissed()
		}
	})
}

// clear hides the overlay, unless a newer surface already replaced pr.
func (p *overlayPresenter) clear(pr *overlayPresentation) {
	p.mu.Lock()
	active := p.current == pr
	if active {
		p.current = nil
	}
	p.mu.Unlock()

	if active {
		p.relay.Send(playerDismissedMsg{})
	}
}

// speechSession owns the playback manager and its collaborators for one
// program run.
type speechSession struct {
	relay   *programRelay
	manager *speech.Manager
	files   *store.FSStore
	synth   *store.DiskCache

	// Active provider configuration. The voice picker rewrites Voice.
	cfg provider.Config
}

// newSpeechSession wires the playback manager from the TUI configuration.
// An unavailable audio device is fatal here; callers degrade to a speechless
// library browser.
func newSpeechSession(cfg Config) (*speechSession, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = store.DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	files, err := store.NewFSStore(dataDir)
	if err != nil {
		return nil, err
	}

	var synth *store.DiskCache
	if !cfg.NoCache {
		synth = openSynthCache(cfg.CacheDir)
	}

	player, err := audio.NewPlayer()
	if err != nil {
		if synth != nil {
			_ = synth.Close()
		}
		return nil, err
	}

	relay := &programRelay{}
	s := &speechSession{
		relay: relay,
		files: files,
		synth: synth,
		cfg:   cfg.Speech,
	}

	dispatchCfg := provider.DispatcherConfig{}
	if synth != nil {
		dispatchCfg.Cache = synth
	}

	s.manager = speech.NewManager(speech.Dependencies{
		Dispatcher: provider.NewDispatcher(dispatchCfg),
		Cache:      speech.NewCache(0, nil),
		Store:      files,
		Player:     player,
		Presenter:  &overlayPresenter{relay: relay},
		Notifier:   statusNotifier{relay: relay},
		OnState: func(st speech.State) {
			relay.Send(speechStateMsg(st))
		},
	})
	return s, nil
}

// openSynthCache opens the persistent synthesis cache. Failures degrade to
// uncached dispatch and are only logged.
func openSynthCache(dir string) *store.DiskCache {
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

// setVoice changes the voice for subsequent requests. Commands snapshot
// the configuration when they are built, so in-flight speech keeps the
// voice it started with.
func (s *speechSession) setVoice(v string) {
	s.cfg.Voice = v
}

// shutdown stops playback and releases the synthesis cache. Safe to call
// from a goroutine while the program exits.
func (s *speechSession) shutdown() {
	s.manager.Stop()
	if s.synth != nil {
		_ = s.synth.Close()
	}
}

// speakDocument loads a document, reduces it to spoken text, and hands it
// to the playback manager. Everything past the file read surfaces through
// manager notifications.
func speakDocument(s *speechSession, md *document) tea.Cmd {
	cfg := s.cfg
	return func() tea.Msg {
		body := md.Body
		if body == "" && md.localPath != "" {
			data, err := os.ReadFile(md.localPath)
			if err != nil {
				return speakIssuedMsg{title: md.Note, err: err}
			}
			body = string(utils.RemoveFrontmatter(data))
		}

		text := utils.ExtractText([]byte(body))
		s.manager.Speak(context.Background(), text, cfg)
		return speakIssuedMsg{title: md.Note}
	}
}

func stopSpeech(s *speechSession) tea.Cmd {
	return func() tea.Msg {
		s.manager.Stop()
		return nil
	}
}

// noticeText renders a notification for the status bar.
func noticeText(n speech.Notification) string {
	switch n.Level {
	case speech.LevelError:
		return "✗ " + n.Message
	case speech.LevelWarning:
		return "⚠ " + n.Message
	default:
		return n.Message
	}
}

// speakableTitle derives a status-bar title from a document note.
func speakableTitle(note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return "(untitled)"
	}
	return note
}
