package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/pandamasta/pwcheck/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateData is the data every page template receives.
type TemplateData struct {
	Title     string
	CSRFToken string
	Extra     map[string]any
}

// BaseTemplateData returns the fields shared by all pages plus extra.
func BaseTemplateData(r *http.Request, title string, extra map[string]any) TemplateData {
	csrf := middleware.CSRFToken(r.Context())
	slog.Debug("[RENDER] BaseTemplateData", "title", title, "csrf", csrf != "")
	return TemplateData{
		Title:     title,
		CSRFToken: csrf,
		Extra:     extra,
	}
}

// Parse builds the template for page on top of the shared base layout.
func Parse(page string) (*template.Template, error) {
	tmpl, err := template.New("base").ParseFS(templateFS, "templates/base.html", "templates/"+page)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", page, err)
	}
	return tmpl, nil
}

// MustParse is Parse for package initialization.
func MustParse(page string) *template.Template {
	tmpl, err := Parse(page)
	if err != nil {
		slog.Error("[RENDER] Failed to parse template", "page", page, "err", err)
		panic(err)
	}
	return tmpl
}

// RenderTemplate executes name into a buffer and writes it with status, so a
// failing template never leaves a half-written page behind.
func RenderTemplate(w http.ResponseWriter, tmpl *template.Template, name string, status int, data TemplateData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("[RENDER] Template execution failed", "name", name, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
