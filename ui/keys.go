package ui

import "github.com/charmbracelet/bubbles/key"

const keyEsc = "esc"

// keyMap holds the library key bindings, rendered through bubbles/help.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Speak    key.Binding
	Preview  key.Binding
	Stop     key.Binding
	Voices   key.Binding
	CopyRef  key.Binding
	Filter   key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "pgup"),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "pgdown"),
			key.WithHelp("→/l", "next page"),
		),
		Speak: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "speak"),
		),
		Preview: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "preview"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Voices: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "voices"),
		),
		CopyRef: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy audio path"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Speak, k.Preview, k.Stop, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Speak, k.Preview, k.Stop, k.Voices},
		{k.CopyRef, k.Filter, k.Refresh, k.Quit},
	}
}
