package frontend

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed views/*.html
var templateFS embed.FS

const viewsPattern = "views/*.html"

// Template renders the embedded views for echo
type Template struct {
	templates *template.Template
}

func NewTemplate() *Template {
	return &Template{
		templates: template.Must(template.New("").Funcs(template.FuncMap{
			"dataURI":    dataURI,
			"formatDate": formatDate,
		}).ParseFS(templateFS, viewsPattern)),
	}
}

func (t *Template) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// dataURI marks decoded image data URIs as safe image sources
func dataURI(uri string) template.URL {
	if !strings.HasPrefix(uri, "data:image/") {
		return template.URL("#")
	}
	return template.URL(uri)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
