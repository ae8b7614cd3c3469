package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/murmur/internal/speech"
)

const (
	libraryViewTopPadding    = 5
	libraryViewBottomPadding = 3
	libraryViewItemHeight    = 3
)

type libraryViewState int

const (
	libraryStateLoading libraryViewState = iota
	libraryStateReady
)

type filterState int

const (
	unfiltered filterState = iota
	filtering
	filterApplied
)

type filteredDocumentsMsg []*document

// libraryModel is the list of markdown documents found under the working
// directory. Selection and filtering happen here; speaking and previewing
// are handled a level up.
type libraryModel struct {
	common *commonModel

	viewState   libraryViewState
	filterState filterState

	spinner     spinner.Model
	filterInput textinput.Model
	paginator   paginator.Model
	cursor      int

	keys keyMap
	help help.Model

	documents []*document
	filtered  []*document

	// Transient header notice, speech status mostly.
	statusMessage      string
	statusLevel        speech.Level
	statusMessageTimer *time.Timer

	// Local file search finished.
	loaded bool
}

func newLibraryModel(common *commonModel) libraryModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(grayFg)

	si := textinput.New()
	si.Prompt = "Filter: "
	si.PromptStyle = lipgloss.NewStyle().Foreground(violet)
	si.Cursor.Style = lipgloss.NewStyle().Foreground(violet)
	si.Focus()

	p := paginator.New()
	p.Type = paginator.Dots
	p.ActiveDot = paginationStyle.Foreground(brightGrayFg).Render("•")
	p.InactiveDot = paginationStyle.Render("○")

	return libraryModel{
		common:      common,
		viewState:   libraryStateLoading,
		spinner:     sp,
		filterInput: si,
		paginator:   p,
		keys:        newKeyMap(),
		help:        help.New(),
	}
}

func (m *libraryModel) setSize(width, height int) {
	m.filterInput.Width = width - len(m.filterInput.Prompt) - 4
	m.help.Width = width - 2

	perPage := (height - libraryViewTopPadding - libraryViewBottomPadding) / libraryViewItemHeight
	m.paginator.PerPage = max(1, perPage)
	m.updatePagination()
}

func (m *libraryModel) addDocuments(docs ...*document) {
	if len(docs) > 0 {
		m.viewState = libraryStateReady
	}
	m.documents = append(m.documents, docs...)
	sortDocuments(m.documents)
	m.updatePagination()
}

func (m *libraryModel) resetDocuments() {
	m.documents = nil
	m.filtered = nil
	m.loaded = false
	m.viewState = libraryStateLoading
	m.filterState = unfiltered
	m.cursor = 0
	m.paginator.Page = 0
	m.updatePagination()
}

// visibleDocuments returns the set the user is looking at: the filter
// results when a filter is active, everything otherwise.
func (m libraryModel) visibleDocuments() []*document {
	if m.filterState == filtering || m.filterState == filterApplied {
		return m.filtered
	}
	return m.documents
}

// selectedDocument returns the document under the cursor.
func (m libraryModel) selectedDocument() *document {
	docs := m.visibleDocuments()
	i := m.paginator.Page*m.paginator.PerPage + m.cursor
	if i < 0 || i >= len(docs) {
		return nil
	}
	return docs[i]
}

func (m libraryModel) shouldSpin() bool {
	return !m.loaded
}

func (m libraryModel) filterApplied() bool {
	return m.filterState == filterApplied
}

func (m libraryModel) shouldUpdateFilter() bool {
	return m.filterState != unfiltered
}

// showStatusMessage displays a notice in the header until the timeout
// fires. A new notice replaces the old one.
func (m *libraryModel) showStatusMessage(n speech.Notification) tea.Cmd {
	m.statusMessage = noticeText(n)
	m.statusLevel = n.Level
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(libraryContext, m.statusMessageTimer)
}

func (m *libraryModel) moveCursorUp() {
	m.cursor--
	if m.cursor < 0 && m.paginator.Page == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= 0 {
		return
	}
	m.paginator.PrevPage()
	m.cursor = m.paginator.ItemsOnPage(len(m.visibleDocuments())) - 1
}

func (m *libraryModel) moveCursorDown() {
	itemsOnPage := m.paginator.ItemsOnPage(len(m.visibleDocuments()))

	m.cursor++
	if m.cursor < itemsOnPage {
		return
	}
	if !m.paginator.OnLastPage() {
		m.paginator.NextPage()
		m.cursor = 0
		return
	}
	m.cursor = itemsOnPage - 1
}

func (m *libraryModel) updatePagination() {
	m.paginator.SetTotalPages(len(m.visibleDocuments()))
	if m.paginator.Page >= m.paginator.TotalPages {
		m.paginator.Page = max(0, m.paginator.TotalPages-1)
	}
	itemsOnPage := m.paginator.ItemsOnPage(len(m.visibleDocuments()))
	if m.cursor >= itemsOnPage {
		m.cursor = max(0, itemsOnPage-1)
	}
}

func (m *libraryModel) startFiltering() tea.Cmd {
	m.filterState = filtering
	m.filterInput.Reset()
	m.filterInput.Focus()
	for _, d := range m.documents {
		if d.filterValue == "" {
			d.buildFilterValue()
		}
	}
	return textinput.Blink
}

func (m *libraryModel) cancelFiltering() {
	m.filterState = unfiltered
	m.filtered = nil
	m.filterInput.Reset()
	m.updatePagination()
}

func (m libraryModel) update(msg tea.Msg) (libraryModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.shouldSpin() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case localFileSearchFinished:
		m.loaded = true
		m.viewState = libraryStateReady
		return m, nil

	case filteredDocumentsMsg:
		m.filtered = msg
		m.updatePagination()
		return m, nil

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == libraryContext {
			m.statusMessage = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.filterState == filtering {
			return m.updateFiltering(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveCursorUp()

		case key.Matches(msg, m.keys.Down):
			m.moveCursorDown()

		case key.Matches(msg, m.keys.PrevPage), key.Matches(msg, m.keys.NextPage):
			var cmd tea.Cmd
			m.paginator, cmd = m.paginator.Update(msg)
			m.updatePagination()
			cmds = append(cmds, cmd)

		case key.Matches(msg, m.keys.Filter):
			cmds = append(cmds, m.startFiltering())

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case msg.String() == keyEsc:
			m.cancelFiltering()
		}
	}

	return m, tea.Batch(cmds...)
}

// updateFiltering routes keys while the filter input is focused.
func (m libraryModel) updateFiltering(msg tea.KeyMsg) (libraryModel, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		m.cancelFiltering()
		return m, nil

	case "enter", "tab":
		if m.filterInput.Value() == "" {
			m.cancelFiltering()
			return m, nil
		}
		m.filterState = filterApplied
		m.filterInput.Blur()
		m.cursor = 0
		m.paginator.Page = 0
		m.updatePagination()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, tea.Batch(cmd, filterDocuments(m))
}

func (m libraryModel) view() string {
	var b strings.Builder
	b.WriteString("\n" + m.headerView() + "\n\n")

	docs := m.visibleDocuments()
	switch {
	case m.viewState == libraryStateLoading:
		b.WriteString("  " + m.spinner.View() + " Looking for markdown…")

	case len(docs) == 0 && m.filterState != unfiltered:
		b.WriteString("  " + subtleStyle.Render("Nothing matched."))

	case len(docs) == 0:
		b.WriteString("  " + subtleStyle.Render("No markdown files found."))

	default:
		m.itemsView(&b)
	}

	if m.paginator.TotalPages > 1 {
		b.WriteString("\n  " + m.paginator.View())
	}

	b.WriteString("\n\n  " + m.help.View(m.keys))
	return b.String()
}

func (m libraryModel) headerView() string {
	if m.filterState == filtering {
		return "  " + m.filterInput.View()
	}

	note := fmt.Sprintf("%d documents", len(m.documents))
	if m.filterState == filterApplied {
		note = fmt.Sprintf("%d of %d documents", len(m.filtered), len(m.documents))
	}
	if m.statusMessage != "" {
		style := subtleStyle
		switch m.statusLevel {
		case speech.LevelError:
			style = lipgloss.NewStyle().Foreground(red)
		case speech.LevelWarning:
			style = lipgloss.NewStyle().Foreground(amber)
		case speech.LevelSuccess:
			style = lipgloss.NewStyle().Foreground(green)
		}
		note = style.Render(m.statusMessage)
		return "  " + logoView() + " " + note
	}
	return "  " + logoView() + " " + subtleStyle.Render(note)
}

func (m libraryModel) itemsView(b *strings.Builder) {
	docs := m.visibleDocuments()
	start, end := m.paginator.GetSliceBounds(len(docs))
	for i, d := range docs[start:end] {
		m.itemView(b, d, i == m.cursor)
		if i != len(docs[start:end])-1 {
			fmt.Fprint(b, "\n")
		}
	}
}

// filterDocuments ranks the library against the filter input.
func filterDocuments(m libraryModel) tea.Cmd {
	return func() tea.Msg {
		if m.filterInput.Value() == "" {
			return filteredDocumentsMsg(m.documents)
		}

		targets := make([]string, len(m.documents))
		for i, d := range m.documents {
			targets[i] = d.filterValue
		}

		ranks := fuzzy.Find(m.filterInput.Value(), targets)
		sort.Stable(ranks)

		filtered := []*document{}
		for _, r := range ranks {
			filtered = append(filtered, m.documents[r.Index])
		}
		return filteredDocumentsMsg(filtered)
	}
}
