// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// DocumentList displays ingested documents in a navigable list.
type DocumentList struct {
	docs     []driving.DocumentSummary
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewDocumentList creates a new document list component.
func NewDocumentList(s *styles.Styles) *DocumentList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DocumentList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// View renders the list, scrolled so the selection stays visible.
func (l *DocumentList) View() string {
	if len(l.docs) == 0 {
		return l.styles.Muted.Render("No documents ingested")
	}

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}

	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.docs))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderDocument(i, &l.docs[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *DocumentList) renderDocument(index int, doc *driving.DocumentSummary) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	nameWidth := l.width - 30
	if nameWidth < 10 {
		nameWidth = 10
	}
	name := truncate(doc.Name, nameWidth)

	meta := fmt.Sprintf("%4d chunks", doc.Chunks)
	if !doc.IngestedAt.IsZero() {
		meta += "  " + doc.IngestedAt.Local().Format("2006-01-02 15:04")
	}

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, nameWidth, name, meta))
	}
	return l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, nameWidth, name)) +
		l.styles.Muted.Render(meta)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDocuments replaces the listed documents, keeping the selection in range.
func (l *DocumentList) SetDocuments(docs []driving.DocumentSummary) {
	l.docs = docs
	if l.selected >= len(docs) {
		l.selected = max(len(docs)-1, 0)
	}
}

// Documents returns the listed documents.
func (l *DocumentList) Documents() []driving.DocumentSummary {
	return l.docs
}

// Selected returns the index of the selected document.
func (l *DocumentList) Selected() int {
	return l.selected
}

// SelectedDocument returns the selected document, or nil if the list is empty.
func (l *DocumentList) SelectedDocument() *driving.DocumentSummary {
	if l.selected < 0 || l.selected >= len(l.docs) {
		return nil
	}
	return &l.docs[l.selected]
}

// MoveUp moves selection up.
func (l *DocumentList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *DocumentList) MoveDown() {
	if l.selected < len(l.docs)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *DocumentList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of documents.
func (l *DocumentList) Count() int {
	return len(l.docs)
}
