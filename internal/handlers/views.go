package handlers

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views renders the embedded gallery templates for fiber's c.Render.
type Views struct {
	templates *template.Template
}

func NewViews() *Views {
	return &Views{}
}

func (v *Views) Load() error {
	t, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	v.templates = t
	return nil
}

// Render executes the template named name + ".html". Layouts are not used.
func (v *Views) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	return v.templates.ExecuteTemplate(w, name+".html", data)
}
