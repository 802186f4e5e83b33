// Package web embeds the HTML pages served by the handlers.
package web

import (
	"embed"
	"html/template"
	"time"

	"todo-calendar/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"timestamp": func(t time.Time) string {
			return t.Format(models.TimestampLayout)
		},
		"link": func(links []string, i int) string {
			if i < 0 || i >= len(links) {
				return ""
			}
			return links[i]
		},
	}
}

// Templates parses every page. Each page is addressed by its file name,
// e.g. "admin.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}
