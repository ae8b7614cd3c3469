package ui

import (
	"fmt"
	"os"
	"sort"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dgnsrekt/murmur/utils"
)

// document is a markdown file the library can speak or preview.
type document struct {
	localPath string

	// Note is the display name, relative to the working directory.
	Note    string
	Modtime time.Time

	// Body holds the raw markdown, loaded on demand.
	Body string

	// Value we filter against. Built on demand.
	filterValue string
}

func (d *document) buildFilterValue() {
	note, err := normalize(d.Note)
	if err != nil {
		log.Error("error normalizing", "note", d.Note, "error", err)
		d.filterValue = d.Note
		return
	}
	d.filterValue = note
}

// relativeTime returns a human-readable representation of the document's
// modification time, absolute past one month.
func (d document) relativeTime() string {
	if time.Since(d.Modtime) < humanize.Month*time.Second {
		return humanize.Time(d.Modtime)
	}
	return d.Modtime.Format("02 Jan 2006")
}

// sortDocuments orders documents newest first.
func sortDocuments(docs []*document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Modtime.After(docs[j].Modtime)
	})
}

// normalize strips diacritics so filtering matches the characters people
// actually type.
func normalize(in string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, in)
	if err != nil {
		return "", fmt.Errorf("error normalizing: %w", err)
	}
	return out, nil
}

type fetchedDocumentMsg *document

// loadLocalDocument reads a document from disk, stripping any frontmatter.
func loadLocalDocument(md *document) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(md.localPath)
		if err != nil {
			log.Error("unable to read document", "file", md.localPath, "error", err)
			return errMsg{err}
		}
		md.Body = string(utils.RemoveFrontmatter(data))
		return fetchedDocumentMsg(md)
	}
}
