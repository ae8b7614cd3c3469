package speech

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Notification keys used by the manager. Repeated notifications under the
// same key describe the same logical operation and replace one another.
const (
	// NotifySpeech is the key for speak and file playback progress.
	NotifySpeech = "speech"
	// NotifyPlayback is the key for asynchronous playback failures.
	NotifyPlayback = "playback"
)

// Level is the severity of a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier surfaces transient status messages to the user. Notifications
// are keyed by a stable string: a new message under an existing key
// replaces the previous one rather than stacking.
type Notifier interface {
	Notify(key string, level Level, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string, Level, string) {}

// LogNotifier writes notifications to the structured log. Suitable for
// non-interactive runs where no status surface exists.
type LogNotifier struct{}

func (LogNotifier) Notify(key string, level Level, message string) {
	switch level {
	case LevelError:
		log.Error(message, "op", key)
	case LevelWarning:
		log.Warn(message, "op", key)
	default:
		log.Info(message, "op", key)
	}
}

// Notification is a recorded keyed message.
type Notification struct {
	Key     string
	Level   Level
	Message string
}

// MemoryNotifier records notifications, keeping only the latest message
// per key plus the full history, for tests and status displays.
type MemoryNotifier struct {
	mu      sync.Mutex
	latest  map[string]Notification
	history []Notification
}

// NewMemoryNotifier creates an empty recording notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{latest: make(map[string]Notification)}
}

func (n *MemoryNotifier) Notify(key string, level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	note := Notification{Key: key, Level: level, Message: message}
	n.latest[key] = note
	n.history = append(n.history, note)
}

// Latest returns the most recent notification for key.
func (n *MemoryNotifier) Latest(key string) (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	note, ok := n.latest[key]
	return note, ok
}

// History returns every notification in arrival order.
func (n *MemoryNotifier) History() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, len(n.history))
	copy(out, n.history)
	return out
}
