package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/murmur/internal/provider"
)

// Dispatcher resolves text through a speech provider backend.
type Dispatcher interface {
	Resolve(ctx context.Context, text string, cfg provider.Config) (provider.Result, error)
}

var _ Dispatcher = (*provider.Dispatcher)(nil)

// Player is the audio device port. Play starts a clip and fires done once
// on natural completion; Stop silences without firing done.
type Player interface {
	Play(data []byte, done func(err error)) error
	Stop()
}

// Store persists resolved audio under the user's data directory. Failures
// degrade playback to in-memory references; they are never fatal.
type Store interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	FullPath(name string) string
}

// Dependencies are the collaborators a Manager is built from. The
// composition root constructs and owns them; tests inject fakes.
type Dependencies struct {
	Dispatcher Dispatcher
	Cache      *Cache
	Store      Store
	Player     Player
	Presenter  Presenter
	Notifier   Notifier

	// OnState observes every state transition. It runs outside the
	// manager lock, so it may call back into the manager.
	OnState func(State)
}

// session is the record of the active playback attempt. At most one
// exists; its generation ties asynchronous callbacks to the request that
// started it.
type session struct {
	id        string
	gen       uint64
	ref       string
	title     string
	startedAt time.Time
	pres      Presentation
}

// SessionInfo describes the active playback session for status surfaces.
type SessionInfo struct {
	ID        string
	Ref       string
	Title     string
	StartedAt time.Time
}

// Manager owns the playback lifecycle: it resolves text through the
// dispatcher, caches and persists the audio, drives the player and the
// floating presentation, and surfaces every failure as a notification.
//
// Requests do not queue. A new Speak or PlayFile claims a fresh generation
// and replaces whatever is active; a resolution that comes back carrying
// an older generation is discarded without touching cache or state.
// Superseded network calls are not aborted, only ignored.
type Manager struct {
	mu      sync.Mutex
	deps    Dependencies
	machine *StateMachine
	gen     uint64
	session *session

	httpClient *http.Client
}

// NewManager creates a playback manager from its collaborators. Nil
// optional ports (Presenter, Notifier) fall back to no-ops.
func NewManager(deps Dependencies) *Manager {
	if deps.Cache == nil {
		deps.Cache = NewCache(0, nil)
	}
	if deps.Presenter == nil {
		deps.Presenter = &NopPresenter{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	return &Manager{
		deps:       deps,
		machine:    NewStateMachine(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// State returns the current playback state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.Current()
}

// IsPlaying reports whether a playback session is active.
func (m *Manager) IsPlaying() bool {
	return m.State() == StatePlaying
}

// Current returns the active session, if any.
func (m *Manager) Current() (SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:        m.session.id,
		Ref:       m.session.ref,
		Title:     m.session.title,
		StartedAt: m.session.startedAt,
	}, true
}

// Speak resolves text to audio and plays it. All failures surface through
// the notifier; nothing propagates to the caller. Empty text and unusable
// provider configuration are rejected before any network traffic.
func (m *Manager) Speak(ctx context.Context, text string, cfg provider.Config) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		m.deps.Notifier.Notify(NotifySpeech, LevelError, "Nothing to speak")
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Debug("rejected speech request", "err", err)
		m.deps.Notifier.Notify(NotifySpeech, LevelError, "Speech provider not configured: "+err.Error())
		return
	}

	key := Key(trimmed)
	title := titleOf(trimmed)

	m.mu.Lock()
	gen := m.claimLocked()
	if entry, ok := m.deps.Cache.Get(key); ok {
		log.Debug("speaking from cache", "key", key, "gen", gen)
		err := m.startLocked(gen, entry.Ref, title, entry.Bytes)
		st := m.machine.Current()
		m.mu.Unlock()

		if err != nil {
			m.deps.Notifier.Notify(NotifySpeech, LevelError, err.Error())
		} else {
			m.deps.Notifier.Notify(NotifySpeech, LevelSuccess, "Speaking")
		}
		m.stateChanged(st)
		return
	}
	m.mu.Unlock()

	m.deps.Notifier.Notify(NotifySpeech, LevelInfo, "Synthesizing speech…")
	go m.resolve(ctx, gen, key, trimmed, title, cfg)
}

// resolve runs one asynchronous synthesis. Its generation was claimed by
// the Speak call that spawned it; by the time the result arrives a newer
// request may own the manager, in which case the result is dropped on the
// floor before any cache or state mutation.
func (m *Manager) resolve(ctx context.Context, gen uint64, key, text, title string, cfg provider.Config) {
	res, err := m.deps.Dispatcher.Resolve(ctx, text, cfg)

	if m.stale(gen) {
		log.Debug("discarding superseded resolution", "gen", gen)
		return
	}
	if err != nil {
		m.deps.Notifier.Notify(NotifySpeech, LevelError, speakFailure(err).Error())
		return
	}
	if len(res.Audio) == 0 {
		m.deps.Notifier.Notify(NotifySpeech, LevelError,
			NewError(ErrorCodeProvider, "synthesis produced nothing", ErrNoAudio).Error())
		return
	}

	ref := m.persist(cfg, key, text, res)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		log.Debug("discarding superseded resolution", "gen", gen)
		return
	}
	m.deps.Cache.Put(key, res.Audio, ref)
	startErr := m.startLocked(gen, ref, title, res.Audio)
	st := m.machine.Current()
	m.mu.Unlock()

	if startErr != nil {
		m.deps.Notifier.Notify(NotifySpeech, LevelError, startErr.Error())
	} else {
		m.deps.Notifier.Notify(NotifySpeech, LevelSuccess, "Speaking")
	}
	m.stateChanged(st)
}

// persist writes resolved audio through the store and returns the playable
// reference. Storage failure degrades to an in-memory reference and a log
// line; playback proceeds either way.
func (m *Manager) persist(cfg provider.Config, key, text string, res provider.Result) string {
	if m.deps.Store == nil {
		return "memory:" + key
	}
	name := filepath.Join("speech", provider.CacheKey(cfg, text)+audioExt(res.Format))
	if err := m.deps.Store.Write(name, res.Audio); err != nil {
		log.Warn("could not persist audio, playing from memory", "key", key, "err", err)
		return "memory:" + key
	}
	return m.deps.Store.FullPath(name)
}

// PlayFile plays audio from a path or URL, bypassing the dispatcher. It
// tries, in order: fetching a remote URL, reading the path directly, and
// reading it as a store-managed name. When every strategy fails it
// returns (and notifies) a playback error and leaves the controller state
// exactly as it was. On success it returns the playable reference.
func (m *Manager) PlayFile(ctx context.Context, pathOrRef, title string) (string, error) {
	m.mu.Lock()
	gen := m.claimLocked()
	m.mu.Unlock()

	data, ref, cacheKey, err := m.resolveFile(ctx, pathOrRef)
	if err != nil {
		perr := NewError(ErrorCodePlayback, fmt.Sprintf("cannot play %s", pathOrRef), err)
		m.deps.Notifier.Notify(NotifySpeech, LevelError, perr.Error())
		return "", perr
	}

	m.mu.Lock()
	if gen != m.gen {
		// A newer request arrived while the file was being read; it
		// owns playback now.
		m.mu.Unlock()
		log.Debug("superseded while resolving file", "path", pathOrRef)
		return ref, nil
	}
	if cacheKey != "" {
		m.deps.Cache.Put(cacheKey, data, ref)
	}
	if title == "" {
		title = filepath.Base(ref)
	}
	startErr := m.startLocked(gen, ref, title, data)
	st := m.machine.Current()
	m.mu.Unlock()

	if startErr != nil {
		m.deps.Notifier.Notify(NotifySpeech, LevelError, startErr.Error())
		m.stateChanged(st)
		return "", startErr
	}
	m.deps.Notifier.Notify(NotifySpeech, LevelSuccess, "Playing "+title)
	m.stateChanged(st)
	return ref, nil
}

// resolveFile turns a path or URL into playable bytes plus a reference.
// The cache key is empty when the source is a plain local file: the file
// itself is the durable reference and re-reading it is cheap, so it does
// not occupy a cache slot.
func (m *Manager) resolveFile(ctx context.Context, pathOrRef string) (data []byte, ref, cacheKey string, err error) {
	if isRemoteRef(pathOrRef) {
		if entry, ok := m.deps.Cache.Get(FileKey(pathOrRef)); ok {
			return entry.Bytes, entry.Ref, "", nil
		}
		data, err = m.fetch(ctx, pathOrRef)
		if err != nil {
			return nil, "", "", err
		}
		return data, pathOrRef, FileKey(pathOrRef), nil
	}

	expanded, expErr := homedir.Expand(pathOrRef)
	if expErr != nil {
		expanded = pathOrRef
	}
	if abs, absErr := filepath.Abs(expanded); absErr == nil {
		expanded = abs
	}
	data, readErr := os.ReadFile(expanded)
	if readErr == nil {
		return data, expanded, "", nil
	}

	if m.deps.Store != nil {
		stored, storeErr := m.deps.Store.Read(pathOrRef)
		if storeErr == nil {
			return stored, m.deps.Store.FullPath(pathOrRef), FileKey(pathOrRef), nil
		}
	}
	return nil, "", "", fmt.Errorf("%w: %v", ErrFileUnplayable, readErr)
}

// fetch downloads remote audio with the caller's context.
func (m *Manager) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Stop forces the active session down: player silenced, presentation
// dismissed, state back to Idle. On an idle controller it does nothing.
func (m *Manager) Stop() {
	m.mu.Lock()
	sess := m.session
	if sess == nil {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.deps.Player.Stop()
	m.machine.Transition(StateIdle)
	m.mu.Unlock()

	if sess.pres != nil {
		sess.pres.Dismiss()
	}
	m.stateChanged(StateIdle)
}

// startLocked replaces the active session with a new one, atomically under
// the manager lock: teardown of the old session and start of the new are
// one operation, with no observable Idle in between. On player failure the
// session is rolled back and the controller lands in Idle.
func (m *Manager) startLocked(gen uint64, ref, title string, data []byte) error {
	if cur := m.session; cur != nil {
		m.session = nil
		m.deps.Player.Stop()
		if cur.pres != nil {
			cur.pres.Dismiss()
		}
	}

	m.machine.Transition(StatePlaying)
	sess := &session{
		id:        uuid.NewString()[:8],
		gen:       gen,
		ref:       ref,
		title:     title,
		startedAt: time.Now(),
	}
	m.session = sess
	sess.pres = m.deps.Presenter.Show(ref, title, func() { m.presentationDismissed(gen) })

	log.Debug("starting playback", "session", sess.id, "ref", ref, "bytes", len(data))
	if err := m.deps.Player.Play(data, func(perr error) { m.playbackDone(gen, perr) }); err != nil {
		if sess.pres != nil {
			sess.pres.Dismiss()
		}
		m.session = nil
		m.machine.Transition(StateIdle)
		return NewError(ErrorCodePlayback, "could not start playback", err)
	}
	return nil
}

// playbackDone handles the player's completion callback. Natural
// completion releases the session and returns to Idle but leaves the
// presentation up for inspection; its own timer removes it. A mid-clip
// device failure tears everything down.
func (m *Manager) playbackDone(gen uint64, err error) {
	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.gen != gen {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.machine.Transition(StateIdle)
	pres := sess.pres
	m.mu.Unlock()

	if err != nil {
		if pres != nil {
			pres.Dismiss()
		}
		m.deps.Notifier.Notify(NotifyPlayback, LevelError, "Playback failed: "+err.Error())
	} else {
		log.Debug("playback completed", "session", sess.id)
	}
	m.stateChanged(StateIdle)
}

// presentationDismissed handles the surface going away while its session
// is still live: the 30 second auto-dismiss or the user closing the
// player. Both mean full teardown. A dismissal for an already-finished
// session is the common case (surface outliving natural completion) and
// is a no-op.
func (m *Manager) presentationDismissed(gen uint64) {
	m.mu.Lock()
	sess := m.session
	if sess == nil || sess.gen != gen {
		m.mu.Unlock()
		return
	}
	log.Debug("presentation expired, stopping playback", "session", sess.id)
	m.session = nil
	m.deps.Player.Stop()
	m.machine.Transition(StateIdle)
	m.mu.Unlock()

	m.stateChanged(StateIdle)
}

// claimLocked hands out the next generation. Every Speak and PlayFile
// claims one before any asynchronous work; only the holder of the current
// generation may commit results.
func (m *Manager) claimLocked() uint64 {
	m.gen++
	return m.gen
}

// stale reports whether gen has been superseded.
func (m *Manager) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen != m.gen
}

func (m *Manager) stateChanged(st State) {
	if m.deps.OnState != nil {
		m.deps.OnState(st)
	}
}

// speakFailure maps a dispatcher error onto the playback error taxonomy.
func speakFailure(err error) *Error {
	var (
		cfgErr    *provider.ConfigError
		workerErr *provider.WorkerError
	)
	switch {
	case errors.As(err, &cfgErr):
		return NewError(ErrorCodeConfiguration, "speech provider not configured", err)
	case errors.As(err, &workerErr):
		return NewError(ErrorCodeWorker, "local speech worker failed", err)
	default:
		return NewError(ErrorCodeProvider, "speech synthesis failed", err)
	}
}

// titleOf derives a presentation title from spoken text.
func titleOf(text string) string {
	r := []rune(strings.Join(strings.Fields(text), " "))
	if len(r) > 48 {
		return string(r[:47]) + "…"
	}
	return string(r)
}

// audioExt picks a file extension for a format hint.
func audioExt(f provider.Format) string {
	switch f {
	case provider.FormatWAV:
		return ".wav"
	case provider.FormatMP3:
		return ".mp3"
	default:
		return ".audio"
	}
}

func isRemoteRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
