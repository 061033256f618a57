package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Authorized bool
	Rejected   bool
}

func renderPage(w io.Writer, data pageData) error {
	return pageTmpl.Execute(w, data)
}
