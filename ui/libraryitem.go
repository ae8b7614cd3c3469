package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

const verticalLine = "│"

// itemView renders a single two-line library entry: title, then the
// last-modified time.
func (m libraryModel) itemView(b *strings.Builder, d *document, selected bool) {
	var (
		gutter     string
		title      = d.Note
		date       = d.relativeTime()
		editing    = m.filterState == filtering
		emptyQuery = editing && m.filterInput.Value() == ""
	)

	if title == "" {
		title = "(untitled)"
	}
	title = truncateLine(title, m.common.width-6)

	switch {
	case emptyQuery:
		// Filter input is up but empty: everything dims.
		gutter = " "
		title = dimListTitleStyle.Render(title)
		date = dimListSubtleStyle.Render(date)

	case selected && !editing:
		gutter = selectedGutterStyle.Render(verticalLine)
		title = styleFilteredText(title, m.filterInput.Value(), selectedTitleStyle, selectedMatchStyle)
		date = selectedSubtleStyle.Render(date)

	default:
		gutter = " "
		title = styleFilteredText(title, m.filterInput.Value(), listTitleStyle, listMatchStyle)
		date = listSubtleStyle.Render(date)
	}

	fmt.Fprintf(b, "  %s %s\n  %s %s\n", gutter, title, gutter, date)
}

// styleFilteredText underlines the runes that matched the filter query.
func styleFilteredText(haystack, needles string, defaultStyle, matchedStyle lipgloss.Style) string {
	if needles == "" {
		return defaultStyle.Render(haystack)
	}

	normalized, err := normalize(haystack)
	if err != nil {
		normalized = haystack
	}
	matches := fuzzy.Find(needles, []string{normalized})
	if len(matches) == 0 {
		return defaultStyle.Render(haystack)
	}

	matched := make(map[int]struct{}, len(matches[0].MatchedIndexes))
	for _, i := range matches[0].MatchedIndexes {
		matched[i] = struct{}{}
	}

	var b strings.Builder
	for i, r := range []rune(haystack) {
		if _, ok := matched[i]; ok {
			b.WriteString(matchedStyle.Render(string(r)))
		} else {
			b.WriteString(defaultStyle.Render(string(r)))
		}
	}
	return b.String()
}
