package ui

import (
	"strings"
	"testing"
	"time"
)

func TestSortDocuments(t *testing.T) {
	now := time.Now()
	docs := []*document{
		{Note: "old.md", Modtime: now.Add(-2 * time.Hour)},
		{Note: "new.md", Modtime: now},
		{Note: "mid.md", Modtime: now.Add(-time.Hour)},
	}

	sortDocuments(docs)

	want := []string{"new.md", "mid.md", "old.md"}
	for i, note := range want {
		if docs[i].Note != note {
			t.Errorf("Expected %q at position %d, got %q", note, i, docs[i].Note)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	recent := document{Modtime: time.Now().Add(-2 * time.Hour)}
	if got := recent.relativeTime(); !strings.Contains(got, "ago") {
		t.Errorf("Expected a relative time for recent files, got %q", got)
	}

	old := document{Modtime: time.Date(2019, 3, 5, 12, 0, 0, 0, time.UTC)}
	if got := old.relativeTime(); got != "05 Mar 2019" {
		t.Errorf("Expected an absolute date for old files, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain ascii", "readme", "readme"},
		{"diacritics stripped", "résumé", "resume"},
		{"umlauts stripped", "Änderungen", "Anderungen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.in)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestLibraryAddAndSelect(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	lib := newLibraryModel(common)
	lib.setSize(80, 24)

	if doc := lib.selectedDocument(); doc != nil {
		t.Errorf("Expected no selection in an empty library, got %v", doc)
	}

	now := time.Now()
	lib.addDocuments(
		&document{Note: "b.md", Modtime: now.Add(-time.Hour)},
		&document{Note: "a.md", Modtime: now},
	)

	if lib.viewState != libraryStateReady {
		t.Errorf("Expected the library to be ready, got %v", lib.viewState)
	}

	doc := lib.selectedDocument()
	if doc == nil {
		t.Fatal("Expected a selection after documents arrived")
	}
	if doc.Note != "a.md" {
		t.Errorf("Expected the newest document selected first, got %q", doc.Note)
	}
}

func TestLibraryCursorBounds(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	lib := newLibraryModel(common)
	lib.setSize(80, 24)
	lib.addDocuments(&document{Note: "only.md", Modtime: time.Now()})

	lib.moveCursorUp()
	if lib.cursor != 0 {
		t.Errorf("Expected the cursor pinned at the top, got %d", lib.cursor)
	}

	lib.moveCursorDown()
	if lib.cursor != 0 {
		t.Errorf("Expected the cursor pinned to the single item, got %d", lib.cursor)
	}
}

func TestLibraryPaging(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	lib := newLibraryModel(common)
	lib.setSize(80, 24)

	now := time.Now()
	perPage := lib.paginator.PerPage
	for i := 0; i < perPage+1; i++ {
		lib.addDocuments(&document{
			Note:    "doc.md",
			Modtime: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	if lib.paginator.TotalPages != 2 {
		t.Fatalf("Expected two pages, got %d", lib.paginator.TotalPages)
	}

	// Walking off the end of the first page flips to the second.
	for i := 0; i < perPage; i++ {
		lib.moveCursorDown()
	}
	if lib.paginator.Page != 1 {
		t.Errorf("Expected to land on the second page, got %d", lib.paginator.Page)
	}
	if lib.cursor != 0 {
		t.Errorf("Expected the cursor at the top of the new page, got %d", lib.cursor)
	}

	// And back up again.
	lib.moveCursorUp()
	if lib.paginator.Page != 0 {
		t.Errorf("Expected to flip back to the first page, got %d", lib.paginator.Page)
	}
	if lib.cursor != perPage-1 {
		t.Errorf("Expected the cursor at the bottom of the page, got %d", lib.cursor)
	}
}

func TestFilterDocuments(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	lib := newLibraryModel(common)
	lib.setSize(80, 24)

	now := time.Now()
	lib.addDocuments(
		&document{Note: "changelog.md", Modtime: now},
		&document{Note: "readme.md", Modtime: now.Add(-time.Minute)},
	)

	_ = lib.startFiltering()
	lib.filterInput.SetValue("read")

	msg := filterDocuments(lib)()
	filtered, ok := msg.(filteredDocumentsMsg)
	if !ok {
		t.Fatalf("Expected a filteredDocumentsMsg, got %T", msg)
	}
	if len(filtered) != 1 {
		t.Fatalf("Expected one match, got %d", len(filtered))
	}
	if filtered[0].Note != "readme.md" {
		t.Errorf("Expected readme.md to match, got %q", filtered[0].Note)
	}
}

func TestFilterDocumentsEmptyQuery(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	lib := newLibraryModel(common)
	lib.setSize(80, 24)
	lib.addDocuments(
		&document{Note: "a.md", Modtime: time.Now()},
		&document{Note: "b.md", Modtime: time.Now()},
	)

	_ = lib.startFiltering()

	msg := filterDocuments(lib)()
	filtered, ok := msg.(filteredDocumentsMsg)
	if !ok {
		t.Fatalf("Expected a filteredDocumentsMsg, got %T", msg)
	}
	if len(filtered) != 2 {
		t.Errorf("Expected an empty query to keep everything, got %d", len(filtered))
	}
}

func TestCancelFiltering(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	lib := newLibraryModel(common)
	lib.setSize(80, 24)
	lib.addDocuments(&document{Note: "a.md", Modtime: time.Now()})

	_ = lib.startFiltering()
	if lib.filterState != filtering {
		t.Fatalf("Expected filtering state, got %v", lib.filterState)
	}

	lib.cancelFiltering()
	if lib.filterState != unfiltered {
		t.Errorf("Expected unfiltered state after cancel, got %v", lib.filterState)
	}
	if lib.filtered != nil {
		t.Error("Expected filter results to be dropped on cancel")
	}
}

func TestSpeakableTitle(t *testing.T) {
	if got := speakableTitle("notes/today.md"); got != "notes/today.md" {
		t.Errorf("Expected the note unchanged, got %q", got)
	}
	if got := speakableTitle("   "); got != "(untitled)" {
		t.Errorf("Expected a placeholder for blank notes, got %q", got)
	}
}
