// Package views embeds the HTML templates rendered by the API.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html
var files embed.FS

// Engine returns a template engine over the embedded views.
func Engine() *html.Engine {
	return html.NewFileSystem(http.FS(files), ".html")
}

// Levels are the study levels offered by the form.
var Levels = []string{"débutant", "intermédiaire", "avancé", "universitaire"}
