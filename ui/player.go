package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

// Playback glyphs shown in the overlay.
const (
	glyphPlaying      = "▶"
	glyphFinished     = "■"
	glyphSynthesizing = "⟳"
	glyphError        = "✗"
)

const (
	playerMaxWidth    = 44
	playerErrorLinger = 4 * time.Second
)

type playerState int

const (
	playerHidden playerState = iota
	playerSynthesizing
	playerPlaying
	playerFinished
	playerError
)

// playerErrorExpiredMsg hides an error overlay after it lingered.
type playerErrorExpiredMsg struct{ seq int }

// playerModel renders the floating player: a bordered box with the active
// title, elapsed time, and the auto-dismiss countdown. It is a view over
// messages the playback manager emits; the authoritative timers live with
// the manager and its presenter.
type playerModel struct {
	state playerState
	title string
	ref   string

	startedAt time.Time
	total     time.Duration
	countdown timer.Model
	spinner   spinner.Model

	errText string
	seq     int
}

func newPlayerModel() playerModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(violet)
	return playerModel{state: playerHidden, spinner: sp}
}

func (m playerModel) visible() bool {
	return m.state != playerHidden
}

// beginSynthesis shows the overlay in its spinner state while the manager
// resolves audio.
func (m playerModel) beginSynthesis(title string) (playerModel, tea.Cmd) {
	m.state = playerSynthesizing
	m.title = title
	m.errText = ""
	m.seq++
	return m, m.spinner.Tick
}

func (m playerModel) show(msg playerShownMsg) (playerModel, tea.Cmd) {
	m.state = playerPlaying
	m.title = msg.title
	m.ref = msg.ref
	m.startedAt = time.Now()
	m.total = time.Until(msg.deadline)
	m.errText = ""
	m.seq++
	m.countdown = timer.NewWithInterval(m.total, time.Second)
	return m, m.countdown.Init()
}

func (m playerModel) hide() (playerModel, tea.Cmd) {
	if m.state == playerHidden {
		return m, nil
	}
	m.state = playerHidden
	m.seq++
	return m, m.countdown.Stop()
}

// finish marks natural completion. The surface stays until its countdown
// runs out.
func (m playerModel) finish() playerModel {
	if m.state == playerPlaying {
		m.state = playerFinished
	}
	return m
}

// fail shows an error in the overlay, then hides it after a beat.
func (m playerModel) fail(text string) (playerModel, tea.Cmd) {
	m.state = playerError
	m.errText = text
	m.seq++
	seq := m.seq
	return m, tea.Tick(playerErrorLinger, func(time.Time) tea.Msg {
		return playerErrorExpiredMsg{seq: seq}
	})
}

func (m playerModel) update(msg tea.Msg) (playerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.state == playerSynthesizing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case timer.TickMsg, timer.StartStopMsg:
		var cmd tea.Cmd
		m.countdown, cmd = m.countdown.Update(msg)
		return m, cmd

	case timer.TimeoutMsg:
		// The presenter's own timer dismisses the surface; nothing to do.
		return m, nil

	case playerErrorExpiredMsg:
		if m.state == playerError && msg.seq == m.seq {
			return m.hide()
		}
		return m, nil
	}
	return m, nil
}

func (m playerModel) view(width int) string {
	if m.state == playerHidden {
		return ""
	}

	boxWidth := min(playerMaxWidth, width-2)
	if boxWidth < 16 {
		return ""
	}
	innerWidth := boxWidth - 4 // border and padding

	var b strings.Builder
	switch m.state {
	case playerSynthesizing:
		head := m.spinner.View() + " Synthesizing…"
		b.WriteString(head + "\n")
		b.WriteString(subtleStyle.Render(truncateLine(m.title, innerWidth)))

	case playerError:
		b.WriteString(lipgloss.NewStyle().Foreground(red).Render(glyphError+" Playback error") + "\n")
		b.WriteString(subtleStyle.Render(wordwrap.String(m.errText, innerWidth)))

	default:
		glyph := glyphPlaying
		if m.state == playerFinished {
			glyph = glyphFinished
		}
		head := lipgloss.NewStyle().Foreground(green).Render(glyph) + " " +
			truncateLine(m.title, innerWidth-2)
		b.WriteString(head + "\n")

		elapsed := formatDuration(time.Since(m.startedAt))
		b.WriteString(subtleStyle.Render(elapsed) + "\n")
		b.WriteString(m.countdownView(innerWidth))
	}

	return playerBorderStyle.Width(boxWidth - 2).Render(b.String())
}

// countdownView renders the auto-dismiss progress bar and remaining time.
func (m playerModel) countdownView(width int) string {
	remaining := m.countdown.Timeout
	if remaining < 0 {
		remaining = 0
	}
	label := fmt.Sprintf(" %ds", int(remaining.Seconds()))

	barWidth := width - ansi.PrintableRuneWidth(label)
	var progress float64
	if m.total > 0 {
		progress = 1 - float64(remaining)/float64(m.total)
	}
	return renderProgressBar(progress, barWidth) + subtleStyle.Render(label)
}

// renderProgressBar draws a filled/empty block bar for a 0..1 fraction.
func renderProgressBar(progress float64, width int) string {
	if width < 4 {
		return ""
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filledWidth := int(progress * float64(width))
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	filledStyle := lipgloss.NewStyle().Foreground(dimViolet)
	emptyStyle := lipgloss.NewStyle().Foreground(midGrayFg)
	return filledStyle.Render(filled) + emptyStyle.Render(empty)
}

// formatDuration renders m:ss for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.StringWithTail(s, uint(width), ellipsis) //nolint:gosec
}

// composeOverlay splices the player box into the bottom-right corner of
// the rendered view, one row above the status line.
func composeOverlay(base, box string, width int) string {
	if box == "" {
		return base
	}

	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")
	if len(boxLines)+1 >= len(baseLines) {
		return base
	}

	boxWidth := 0
	for _, bl := range boxLines {
		boxWidth = max(boxWidth, ansi.PrintableRuneWidth(bl))
	}
	col := max(0, width-boxWidth-1)
	start := len(baseLines) - len(boxLines) - 1

	for i, bl := range boxLines {
		line := truncate.String(baseLines[start+i], uint(col)) //nolint:gosec
		line += termenv.CSI + termenv.ResetSeq + "m"
		if pad := col - ansi.PrintableRuneWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		baseLines[start+i] = line + bl
	}
	return strings.Join(baseLines, "\n")
}
