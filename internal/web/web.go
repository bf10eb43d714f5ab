// Package web holds the server-rendered mobile pages.
package web

import (
	"embed"
	"html/template"

	"github.com/rossfreedman/rally/internal/lineup"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	OpposingPage = "lineup_escrow_opposing.html"
	ViewPage     = "lineup_escrow_view.html"
	ErrorPage    = "error.html"
)

// Templates parses every embedded page.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"courts": courts,
	}).ParseFS(templateFS, "templates/*.html")
}

// courts returns the court cards of a lineup, or nil when the text is not in
// a court format and must be shown as is.
func courts(text string) []lineup.Assignment {
	l, err := lineup.Parse(text)
	if err != nil {
		return nil
	}
	return l.Courts
}
