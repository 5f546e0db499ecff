package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pandamasta/pwcheck/password"
)

const maxBodyBytes = 64 << 10

// ValidateRequest is the body of POST /api/validate. Absent fields are empty.
type ValidateRequest struct {
	Password string `json:"password"`
	Username string `json:"username"`
}

// ValidateResponse is the answer of POST /api/validate.
type ValidateResponse struct {
	Valid       bool                  `json:"valid"`
	Reason      password.Reason       `json:"reason"`
	Message     string                `json:"message,omitempty"`
	Diagnostics []password.Diagnostic `json:"diagnostics"`
}

// ValidateAPIHandler handles POST /api/validate.
func ValidateAPIHandler(v *password.Validator, store CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Step 1: Decode the body
		var req ValidateRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			slog.Warn("[API] Invalid validate request", "err", err)
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		// Step 2: Validate, collecting this request's diagnostics
		rec := &password.Recorder{}
		res := v.With(rec).Validate(req.Password, req.Username)

		// Step 3: Store the outcome
		record(r.Context(), store, res, req.Username, SourceAPI)

		writeJSON(w, http.StatusOK, ValidateResponse{
			Valid:       res.Valid(),
			Reason:      res.Reason,
			Message:     Detail(res.Reason),
			Diagnostics: rec.Diagnostics(),
		})
	}
}

// StatsAPIHandler handles GET /api/stats.
func StatsAPIHandler(store CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeJSONError(w, http.StatusNotFound, "check history is disabled")
			return
		}
		st, err := store.Stats(r.Context())
		if err != nil {
			slog.Error("[API] Failed to load stats", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
