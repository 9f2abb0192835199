package views

import (
	"embed"
	"html/template"
	"io"

	"quoteform/form"
)

//go:embed form.html
var files embed.FS

var formPage = template.Must(template.ParseFS(files, "form.html"))

func RenderForm(w io.Writer, v form.View) error {
	return formPage.Execute(w, v)
}
