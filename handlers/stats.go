package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/pandamasta/pwcheck/internal/render"
	"github.com/pandamasta/pwcheck/password"
)

const recentLimit = 20

type statsRow struct {
	Label string
	Count int64
}

// InitStatsTemplates parses the stats page on top of the base layout.
func InitStatsTemplates() *template.Template {
	return render.MustParse("stats.html")
}

// StatsHandler handles GET /stats. Without a store it answers 404.
func StatsHandler(store CheckStore, tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.NotFound(w, r)
			return
		}

		st, err := store.Stats(r.Context())
		if err != nil {
			slog.Error("[STATS] Failed to load stats", "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		recent, err := store.Recent(r.Context(), recentLimit)
		if err != nil {
			slog.Error("[STATS] Failed to load recent checks", "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		rows := make([]statsRow, 0, len(password.Reasons()))
		for _, reason := range password.Reasons() {
			label := reason.String()
			if reason == password.ReasonNone {
				label = "valid"
			}
			rows = append(rows, statsRow{Label: label, Count: st.ByReason[reason]})
		}

		data := render.BaseTemplateData(r, "Check history", map[string]any{
			"Stats":  st,
			"Rows":   rows,
			"Recent": recent,
		})
		render.RenderTemplate(w, tmpl, "base", http.StatusOK, data)
	}
}
