package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/murmur/internal/provider"
)

// voiceChosenMsg is sent when the user picks a voice from the list.
type voiceChosenMsg string

// voicesModel is a fuzzy-filterable picker over the voice catalog of the
// configured provider.
type voicesModel struct {
	common *commonModel
	input  textinput.Model

	kind    provider.Kind
	current string

	voices   []string
	filtered []string
	cursor   int
}

func newVoicesModel(common *commonModel) voicesModel {
	ti := textinput.New()
	ti.Prompt = "Voice: "
	ti.PromptStyle = selectedTitleStyle
	ti.Cursor.Style = selectedTitleStyle

	return voicesModel{
		common: common,
		input:  ti,
	}
}

// open loads the catalog for the given provider and resets the picker.
func (m *voicesModel) open(kind provider.Kind, current string) tea.Cmd {
	m.kind = kind
	m.current = current
	m.voices = provider.Voices(kind)
	m.filtered = m.voices
	m.cursor = 0
	for i, v := range m.voices {
		if v == current {
			m.cursor = i
			break
		}
	}
	m.input.Reset()
	m.input.Focus()
	return textinput.Blink
}

func (m *voicesModel) refilter() {
	if m.input.Value() == "" {
		m.filtered = m.voices
	} else {
		ranks := fuzzy.Find(m.input.Value(), m.voices)
		filtered := make([]string, 0, len(ranks))
		for _, r := range ranks {
			filtered = append(filtered, m.voices[r.Index])
		}
		m.filtered = filtered
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m voicesModel) update(msg tea.Msg) (voicesModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if m.cursor < len(m.filtered) {
			v := m.filtered[m.cursor]
			return m, func() tea.Msg { return voiceChosenMsg(v) }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refilter()
	return m, cmd
}

func (m voicesModel) view() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s %s\n\n", logoView(),
		subtleStyle.Render(fmt.Sprintf("Voices · %s", m.kind)))
	b.WriteString("  " + m.input.View() + "\n\n")

	if len(m.filtered) == 0 {
		b.WriteString("  " + subtleStyle.Render("Nothing matched."))
	}

	visible := m.common.height - 8
	if visible < 1 {
		visible = 1
	}

	// Keep the cursor on screen.
	top := 0
	if m.cursor >= visible {
		top = m.cursor - visible + 1
	}

	for i := top; i < len(m.filtered) && i < top+visible; i++ {
		v := m.filtered[i]
		marker := " "
		if v == m.current {
			marker = "•"
		}
		line := fmt.Sprintf("%s %s", marker, v)
		if i == m.cursor {
			line = selectedGutterStyle.Render(verticalLine) + " " +
				styleFilteredText(line, m.input.Value(), selectedTitleStyle, selectedMatchStyle)
		} else {
			line = "  " + styleFilteredText(line, m.input.Value(), listTitleStyle, listMatchStyle)
		}
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n  " + subtleStyle.Render("enter: choose • esc: cancel"))
	return b.String()
}
