package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pandamasta/pwcheck/models"
	"github.com/pandamasta/pwcheck/password"
)

// Sources recorded with each stored check.
const (
	SourceWeb = "web"
	SourceAPI = "api"
	SourceCLI = "cli"
)

// CheckStore persists check outcomes. A nil CheckStore disables history.
type CheckStore interface {
	Record(ctx context.Context, result password.Result, username, source string) error
	Stats(ctx context.Context) (*models.Stats, error)
	Recent(ctx context.Context, limit int) ([]models.CheckRecord, error)
}

// ResultView is what the result box on the check page shows.
type ResultView struct {
	Class  string // "valid" or "invalid", used as the CSS class
	Text   string
	Reason string
	Detail string
}

var reasonDetails = map[password.Reason]string{
	password.ReasonTooShort:         "Password must be at least 8 characters long.",
	password.ReasonContainsSpace:    "Password must not contain spaces.",
	password.ReasonContainsUsername: "Password must not contain your username.",
}

// Detail returns the user-facing explanation of reason, "" for ReasonNone.
func Detail(reason password.Reason) string {
	return reasonDetails[reason]
}

// NewResultView maps a validation result onto the result box.
func NewResultView(res password.Result) *ResultView {
	if res.Valid() {
		return &ResultView{Class: "valid", Text: "Password is VALID! ✅", Reason: res.Reason.String()}
	}
	return &ResultView{
		Class:  "invalid",
		Text:   "Password is INVALID! ❌",
		Reason: res.Reason.String(),
		Detail: Detail(res.Reason),
	}
}

// record stores the outcome if a store is configured. Failures are logged and
// never change the answer given to the user.
func record(ctx context.Context, store CheckStore, res password.Result, username, source string) {
	if store == nil {
		return
	}
	if err := store.Record(ctx, res, username, source); err != nil {
		slog.Error("[CHECK] Failed to record check", "source", source, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("[API] Failed to encode response", "err", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
