package speech

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultAutoDismiss is how long a player surface stays up before it
// removes itself.
const DefaultAutoDismiss = 30 * time.Second

// Presenter renders the floating player surface for an active session.
//
// Show replaces: presenting while another surface is visible dismisses the
// old surface first, never stacks. Every shown presentation schedules an
// auto-dismiss timer; onDismissed fires exactly once when the surface goes
// away for any reason (timer, user close, programmatic dismiss) and must
// not be invoked synchronously from within Show.
type Presenter interface {
	Show(ref, title string, onDismissed func()) Presentation
}

// Presentation is a handle to a visible player surface. Dismiss is
// idempotent: dismissing twice has no further effect.
type Presentation interface {
	Dismiss()
}

// timedPresentation implements the auto-dismiss contract shared by the
// concrete presenters: a timer armed at show time, canceled by an early
// Dismiss, with a sync.Once guaranteeing single teardown.
type timedPresentation struct {
	once        sync.Once
	timer       *time.Timer
	teardown    func()
	onDismissed func()
}

func newTimedPresentation(ttl time.Duration, teardown, onDismissed func()) *timedPresentation {
	if ttl <= 0 {
		ttl = DefaultAutoDismiss
	}
	p := &timedPresentation{
		teardown:    teardown,
		onDismissed: onDismissed,
	}
	p.timer = time.AfterFunc(ttl, p.Dismiss)
	return p
}

func (p *timedPresentation) Dismiss() {
	p.once.Do(func() {
		p.timer.Stop()
		if p.teardown != nil {
			p.teardown()
		}
		if p.onDismissed != nil {
			go p.onDismissed()
		}
	})
}

// NopPresenter renders nothing. Dismissal callbacks still fire on the
// auto-dismiss schedule so session expiry keeps working headless.
type NopPresenter struct {
	// AutoDismiss overrides the surface lifetime. Zero means the default.
	AutoDismiss time.Duration

	mu      sync.Mutex
	current *timedPresentation
}

func (n *NopPresenter) Show(_, _ string, onDismissed func()) Presentation {
	n.mu.Lock()
	old := n.current
	var p *timedPresentation
	p = newTimedPresentation(n.AutoDismiss, func() { n.clear(p) }, onDismissed)
	n.current = p
	n.mu.Unlock()

	if old != nil {
		old.Dismiss()
	}
	return p
}

// clear removes p from the presenter, unless a newer surface already
// replaced it.
func (n *NopPresenter) clear(p *timedPresentation) {
	n.mu.Lock()
	if n.current == p {
		n.current = nil
	}
	n.mu.Unlock()
}

// TerminalPresenter prints the player surface as status lines, for
// non-interactive runs. The visible surface still honors replace and
// auto-dismiss semantics even though lines cannot be unprinted.
type TerminalPresenter struct {
	// Out receives the player lines. Defaults to io.Discard when nil.
	Out io.Writer
	// AutoDismiss overrides the surface lifetime. Zero means the default.
	AutoDismiss time.Duration

	mu      sync.Mutex
	current *timedPresentation
}

func (t *TerminalPresenter) Show(ref, title string, onDismissed func()) Presentation {
	t.mu.Lock()
	old := t.current
	var p *timedPresentation
	p = newTimedPresentation(t.AutoDismiss, func() { t.clear(p) }, onDismissed)
	t.current = p
	out := t.Out
	t.mu.Unlock()

	if old != nil {
		old.Dismiss()
	}
	if out != nil {
		fmt.Fprintf(out, "▶ %s\n", title)
	}
	return p
}

// clear removes p from the presenter, unless a newer surface already
// replaced it.
func (t *TerminalPresenter) clear(p *timedPresentation) {
	t.mu.Lock()
	if t.current == p {
		t.current = nil
	}
	t.mu.Unlock()
}

// Visible reports whether a surface is currently shown.
func (t *TerminalPresenter) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}
