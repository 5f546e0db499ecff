package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"mime"
	"net/http"

	"github.com/pandamasta/pwcheck/internal/config"
)

// CSRF adds double-submit cookie protection to form submissions.
// JSON requests are exempt: browsers cannot send them cross-site without CORS.
func CSRF(cfg config.CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Step 1: Reuse the cookie token or mint a new one
			var token string
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				token, err = generateCSRFToken()
				if err != nil {
					slog.Error("[CSRF] Token generation failed", "error", err)
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
				})
				slog.Debug("[CSRF] Token created", "path", r.URL.Path)
			} else {
				token = cookie.Value
			}

			// Step 2: Store in context for handlers
			r = r.WithContext(context.WithValue(r.Context(), CsrfKey, token))

			// Step 3: Validate state-changing form requests
			if isUnsafe(r.Method) && !isJSON(r) {
				if err := r.ParseForm(); err != nil {
					slog.Warn("[CSRF] Failed to parse form", "error", err, "path", r.URL.Path)
					http.Error(w, "Invalid form submission", http.StatusBadRequest)
					return
				}
				formToken := r.PostFormValue(cfg.FieldName)
				if formToken == "" {
					slog.Warn("[CSRF] Missing CSRF token in form", "path", r.URL.Path)
					http.Error(w, "CSRF token missing in form", http.StatusForbidden)
					return
				}
				if subtle.ConstantTimeCompare([]byte(token), []byte(formToken)) != 1 {
					slog.Warn("[CSRF] Invalid CSRF token", "path", r.URL.Path)
					http.Error(w, "Invalid CSRF token", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isUnsafe(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete || method == http.MethodPatch
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
