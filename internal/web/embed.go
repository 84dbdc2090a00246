package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

//go:embed templates/*.tmpl
var templatesFS embed.FS

// StaticFS returns the embedded static/ filesystem with the "static" prefix stripped.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.tmpl")
}
