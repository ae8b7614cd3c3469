package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/editor"
)

type editorFinishedMsg struct{ err error }

func openEditor(path string, lineno int) tea.Cmd {
	cb := func(err error) tea.Msg {
		return editorFinishedMsg{err}
	}
	c, err := editor.Cmd("Murmur", path, editor.OpenAtLine(lineno))
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	return tea.ExecProcess(c, cb)
}
