package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/pandamasta/pwcheck/internal/render"
	"github.com/pandamasta/pwcheck/password"
)

const checkTitle = "Password checker"

// InitCheckTemplates parses the check page on top of the base layout.
func InitCheckTemplates() *template.Template {
	return render.MustParse("check.html")
}

// CheckFormHandler handles GET / and renders the empty form.
func CheckFormHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := render.BaseTemplateData(r, checkTitle, map[string]any{
			"Username": "",
		})
		render.RenderTemplate(w, tmpl, "base", http.StatusOK, data)
	}
}

// CheckHandler handles POST /check: it validates the submitted password and
// re-renders the form with the result box. The password is never echoed back.
func CheckHandler(v *password.Validator, store CheckStore, tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Step 1: Parse the form
		if err := r.ParseForm(); err != nil {
			slog.Warn("[CHECK] Invalid form", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		// Step 2: Missing fields are treated as empty strings
		pw := r.PostFormValue("password")
		username := r.PostFormValue("username")

		// Step 3: Validate
		res := v.Validate(pw, username)
		slog.Debug("[CHECK] Checked password", "verdict", res.Verdict.String(), "reason", res.Reason.String())

		// Step 4: Store the outcome
		record(r.Context(), store, res, username, SourceWeb)

		// Step 5: Render the result
		data := render.BaseTemplateData(r, checkTitle, map[string]any{
			"Username": username,
			"Result":   NewResultView(res),
		})
		render.RenderTemplate(w, tmpl, "base", http.StatusOK, data)
	}
}
