// Package ui provides the main UI for the murmur application.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	te "github.com/muesli/termenv"

	"github.com/dgnsrekt/murmur/internal/provider"
	"github.com/dgnsrekt/murmur/internal/speech"
	"github.com/dgnsrekt/murmur/utils"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "Copied audio path"
	ellipsis             = "…"
)

var (
	config Config

	markdownExtensions = []string{
		"*.md", "*.mdown", "*.mkdn", "*.mkd", "*.markdown",
	}
)

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, content string) *tea.Program {
	log.Debug(
		"Starting murmur",
		"high_perf_pager",
		cfg.HighPerformancePager,
		"glamour",
		cfg.GlamourEnabled,
	)

	config = cfg
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, content)
	p := tea.NewProgram(m, opts...)
	if m.speech != nil {
		// Playback callbacks arrive from manager goroutines; route them
		// into the program loop.
		m.speech.relay.attach(p.Send)
	}
	return p
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	initLocalFileSearchMsg struct {
		cwd string
		ch  chan gitcha.SearchResult
	}
)

type (
	foundLocalFileMsg       gitcha.SearchResult
	localFileSearchFinished struct{}
	statusMessageTimeoutMsg applicationContext
)

// applicationContext indicates the area of the application something applies
// to. Occasionally used as an argument to commands and messages.
type applicationContext int

const (
	libraryContext applicationContext = iota
	pagerContext
)

// state is the top-level application state.
type state int

const (
	stateShowLibrary state = iota
	stateShowDocument
	stateShowVoices
)

func (s state) String() string {
	return map[state]string{
		stateShowLibrary:  "showing file listing",
		stateShowDocument: "showing document",
		stateShowVoices:   "showing voice picker",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	cwd    string
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	// Sub-models
	library libraryModel
	pager   pagerModel
	voices  voicesModel
	player  playerModel

	// Playback wiring. Nil when the audio device could not be opened, in
	// which case murmur degrades to a plain reader.
	speech    *speechSession
	speechErr error

	// Channel that receives paths to local markdown files
	// (via the github.com/muesli/gitcha package)
	localFileFinder chan gitcha.SearchResult
}

// unloadDocument unloads a document from the pager. Note that while this
// method alters the model we also need to send along any commands returned.
func (m *model) unloadDocument() []tea.Cmd {
	m.state = stateShowLibrary
	m.library.viewState = libraryStateReady
	m.pager.unload()
	m.pager.showHelp = false

	var batch []tea.Cmd
	if m.pager.viewport.HighPerformanceRendering {
		batch = append(batch, tea.ClearScrollArea) //nolint:staticcheck
	}

	if m.library.shouldSpin() {
		batch = append(batch, m.library.spinner.Tick)
	}
	return batch
}

func newModel(cfg Config, content string) model {
	if cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	common := commonModel{
		cfg: cfg,
	}

	m := model{
		common:  &common,
		state:   stateShowLibrary,
		pager:   newPagerModel(&common),
		library: newLibraryModel(&common),
		voices:  newVoicesModel(&common),
		player:  newPlayerModel(),
	}

	sp, err := newSpeechSession(cfg)
	if err != nil {
		log.Warn("speech unavailable", "error", err)
		m.speechErr = err
	} else {
		m.speech = sp
	}

	path := cfg.Path
	if path == "" && content != "" {
		m.state = stateShowDocument
		m.pager.currentDocument = document{Body: content}
		return m
	}

	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		log.Error("unable to stat file", "file", path, "error", err)
		m.fatalErr = err
		return m
	}
	if info.IsDir() {
		m.state = stateShowLibrary
	} else {
		cwd, _ := os.Getwd()
		m.state = stateShowDocument
		m.pager.currentDocument = document{
			localPath: path,
			Note:      stripAbsolutePath(path, cwd),
			Modtime:   info.ModTime(),
		}
	}

	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	cmds := []tea.Cmd{m.library.spinner.Tick}

	switch m.state { //nolint:exhaustive
	case stateShowLibrary:
		cmds = append(cmds, findLocalFiles(*m.common))
	case stateShowDocument:
		if m.pager.currentDocument.localPath != "" {
			doc := m.pager.currentDocument
			cmds = append(cmds, loadLocalDocument(&doc))
		} else {
			cmds = append(cmds, renderWithGlamour(m.pager, m.pager.currentDocument.Body))
		}
	}

	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The filter input eats every key but ctrl+c while it's focused.
		if m.state == stateShowLibrary && m.library.filterState == filtering {
			if msg.String() == "ctrl+c" {
				return m, m.quit()
			}
			library, cmd := m.library.update(msg)
			m.library = library
			return m, cmd
		}

		// The voice picker owns the keyboard while it's up.
		if m.state == stateShowVoices {
			switch msg.String() {
			case keyEsc:
				m.state = stateShowLibrary
				return m, nil
			case "ctrl+c":
				return m, m.quit()
			}
			voices, cmd := m.voices.update(msg)
			m.voices = voices
			return m, cmd
		}

		switch msg.String() {
		case keyEsc:
			if m.state == stateShowDocument {
				batch := m.unloadDocument()
				return m, tea.Batch(batch...)
			}

		case "r":
			if m.state == stateShowLibrary {
				m.library.resetDocuments()
				return m, m.Init()
			}

		case "q":
			return m, m.quit()

		case "h", "delete":
			if m.state == stateShowDocument {
				cmds = append(cmds, m.unloadDocument()...)
				return m, tea.Batch(cmds...)
			}

		case "ctrl+z":
			return m, tea.Suspend

		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			return m, m.quit()

		case "enter":
			switch m.state { //nolint:exhaustive
			case stateShowLibrary:
				doc := m.library.selectedDocument()
				if doc == nil {
					break
				}
				return m, m.startSpeech(doc)
			case stateShowDocument:
				doc := m.pager.currentDocument
				return m, m.startSpeech(&doc)
			}

		case "o":
			if m.state == stateShowLibrary {
				doc := m.library.selectedDocument()
				if doc == nil {
					break
				}
				return m, loadLocalDocument(doc)
			}

		case "s":
			if m.speech == nil {
				return m, m.speechUnavailable()
			}
			return m, stopSpeech(m.speech)

		case "v":
			if m.state != stateShowLibrary {
				break
			}
			if m.speech == nil {
				return m, m.speechUnavailable()
			}
			if len(provider.Voices(m.speech.cfg.Kind)) == 0 {
				return m, m.showNotice(speech.Notification{
					Key:     speech.NotifySpeech,
					Level:   speech.LevelWarning,
					Message: fmt.Sprintf("No voice catalog for provider %q", m.speech.cfg.Kind),
				})
			}
			m.state = stateShowVoices
			return m, m.voices.open(m.speech.cfg.Kind, m.speech.cfg.Voice)

		case "c":
			if m.state == stateShowLibrary {
				return m, m.copyAudioRef()
			}
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.library.setSize(msg.Width, msg.Height)
		m.pager.setSize(msg.Width, msg.Height)

	case initLocalFileSearchMsg:
		m.localFileFinder = msg.ch
		m.common.cwd = msg.cwd
		cmds = append(cmds, findNextLocalFile(m))

	case fetchedDocumentMsg:
		// We've loaded a document's contents for rendering
		m.pager.currentDocument = *msg
		body := string(utils.RemoveFrontmatter([]byte(msg.Body)))
		cmds = append(cmds, renderWithGlamour(m.pager, body))

	case contentRenderedMsg:
		m.state = stateShowDocument

	case localFileSearchFinished:
		// Always pass these messages to the library so we can keep it
		// updated about search progress, even if the user isn't currently
		// viewing it.
		library, cmd := m.library.update(msg)
		m.library = library
		return m, cmd

	case foundLocalFileMsg:
		newDoc := localFileToDocument(m.common.cwd, gitcha.SearchResult(msg))
		m.library.addDocuments(newDoc)
		if m.library.filterApplied() {
			newDoc.buildFilterValue()
		}
		if m.library.shouldUpdateFilter() {
			cmds = append(cmds, filterDocuments(m.library))
		}
		cmds = append(cmds, findNextLocalFile(m))

	case filteredDocumentsMsg:
		if m.state == stateShowDocument {
			library, cmd := m.library.update(msg)
			m.library = library
			cmds = append(cmds, cmd)
		}

	// Playback messages, relayed from the manager's goroutines.
	case speakIssuedMsg:
		if msg.err != nil {
			player, cmd := m.player.fail(msg.err.Error())
			m.player = player
			cmds = append(cmds, cmd)
		}

	case playerShownMsg:
		player, cmd := m.player.show(msg)
		m.player = player
		cmds = append(cmds, cmd)

	case playerDismissedMsg:
		player, cmd := m.player.hide()
		m.player = player
		cmds = append(cmds, cmd)

	case speechStateMsg:
		if speech.State(msg) == speech.StateIdle {
			m.player = m.player.finish()
		}

	case speechNoticeMsg:
		n := speech.Notification(msg)
		if n.Level == speech.LevelError {
			player, cmd := m.player.fail(n.Message)
			m.player = player
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.showNotice(n))

	case voiceChosenMsg:
		m.state = stateShowLibrary
		if m.speech != nil {
			m.speech.setVoice(string(msg))
		}
		cmds = append(cmds, m.showNotice(speech.Notification{
			Key:     speech.NotifySpeech,
			Level:   speech.LevelSuccess,
			Message: "Voice set to " + string(msg),
		}))

	case errMsg:
		m.fatalErr = msg.err
		return m, nil
	}

	// The player overlay animates independently of the focused view.
	player, cmd := m.player.update(msg)
	m.player = player
	cmds = append(cmds, cmd)

	// Process children
	switch m.state {
	case stateShowLibrary:
		library, cmd := m.library.update(msg)
		m.library = library
		cmds = append(cmds, cmd)

	case stateShowDocument:
		pager, cmd := m.pager.update(msg)
		m.pager = pager
		cmds = append(cmds, cmd)

	case stateShowVoices:
		voices, cmd := m.voices.update(msg)
		m.voices = voices
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	var view string
	switch m.state {
	case stateShowDocument:
		view = m.pager.View()
	case stateShowVoices:
		return m.voices.view()
	default:
		view = m.library.view()
	}

	if box := m.player.view(m.common.width); box != "" {
		return composeOverlay(view, box, m.common.width)
	}
	return view
}

// startSpeech starts resolving a document into speech and raises the
// player overlay in its synthesizing state.
func (m *model) startSpeech(doc *document) tea.Cmd {
	if m.speech == nil {
		return m.speechUnavailable()
	}
	player, cmd := m.player.beginSynthesis(speakableTitle(doc.Note))
	m.player = player
	return tea.Batch(cmd, speakDocument(m.speech, doc))
}

// copyAudioRef copies the path of the most recently synthesized audio to
// the system clipboard.
func (m *model) copyAudioRef() tea.Cmd {
	ref := m.player.ref
	switch {
	case ref == "":
		return m.showNotice(speech.Notification{
			Key:     speech.NotifySpeech,
			Level:   speech.LevelWarning,
			Message: "Nothing synthesized yet",
		})
	case strings.HasPrefix(ref, "memory:"):
		return m.showNotice(speech.Notification{
			Key:     speech.NotifySpeech,
			Level:   speech.LevelWarning,
			Message: "Audio was not saved to disk",
		})
	}

	te.Copy(ref)
	_ = clipboard.WriteAll(ref)
	return m.showNotice(speech.Notification{
		Key:     speech.NotifySpeech,
		Level:   speech.LevelSuccess,
		Message: "Copied audio path",
	})
}

// showNotice routes a notification to whichever status surface is visible.
func (m *model) showNotice(n speech.Notification) tea.Cmd {
	if m.state == stateShowDocument {
		return m.pager.showStatusMessage(pagerStatusMessage{
			message: noticeText(n),
			isError: n.Level == speech.LevelError,
		})
	}
	return m.library.showStatusMessage(n)
}

func (m *model) speechUnavailable() tea.Cmd {
	msg := "Speech unavailable"
	if m.speechErr != nil {
		msg += ": " + m.speechErr.Error()
	}
	return m.showNotice(speech.Notification{
		Key:     speech.NotifySpeech,
		Level:   speech.LevelError,
		Message: msg,
	})
}

// quit tears down playback before leaving the alt screen. Shutdown is
// synchronous so the synthesis cache index always lands on disk.
func (m *model) quit() tea.Cmd {
	if m.speech != nil {
		m.speech.shutdown()
	}
	return tea.Quit
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func findLocalFiles(m commonModel) tea.Cmd {
	return func() tea.Msg {
		log.Info("findLocalFiles")
		var (
			cwd = m.cfg.Path
			err error
		)

		if cwd == "" {
			cwd, err = os.Getwd()
		} else {
			var info os.FileInfo
			info, err = os.Stat(cwd)
			if err == nil && info.IsDir() {
				cwd, err = filepath.Abs(cwd)
			}
		}

		// Note that this is one error check for both cases above
		if err != nil {
			log.Error("error finding local files", "error", err)
			return errMsg{err}
		}

		log.Debug("local directory is", "cwd", cwd)

		// Switch between FindFiles and FindAllFiles to bypass .gitignore rules
		var ch chan gitcha.SearchResult
		if m.cfg.ShowAllFiles {
			ch, err = gitcha.FindAllFilesExcept(cwd, markdownExtensions, nil)
		} else {
			ch, err = gitcha.FindFilesExcept(cwd, markdownExtensions, ignorePatterns(m))
		}

		if err != nil {
			log.Error("error finding local files", "error", err)
			return errMsg{err}
		}

		return initLocalFileSearchMsg{ch: ch, cwd: cwd}
	}
}

func findNextLocalFile(m model) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.localFileFinder

		if ok {
			// Okay now find the next one
			return foundLocalFileMsg(res)
		}
		// We're done
		log.Debug("local file search finished")
		return localFileSearchFinished{}
	}
}

func waitForStatusMessageTimeout(appCtx applicationContext, t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg(appCtx)
	}
}

// ETC

// ignorePatterns returns the directory globs the local file search skips
// over.
func ignorePatterns(m commonModel) []string {
	return []string{
		filepath.Join(m.cfg.Gopath, "pkg"),
		"node_modules",
		".*",
	}
}

// Convert a Gitcha result to an internal representation of a markdown
// document. Note that we could be doing things like checking if the file is
// a directory, but we trust that gitcha has already done that.
func localFileToDocument(cwd string, res gitcha.SearchResult) *document {
	return &document{
		localPath: res.Path,
		Note:      stripAbsolutePath(res.Path, cwd),
		Modtime:   res.Info.ModTime(),
	}
}

func stripAbsolutePath(fullPath, cwd string) string {
	fp, _ := filepath.EvalSymlinks(fullPath)
	cp, _ := filepath.EvalSymlinks(cwd)
	return strings.ReplaceAll(fp, cp+string(os.PathSeparator), "")
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
