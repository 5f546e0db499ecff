package middleware

import "context"

type contextKey string

const CsrfKey contextKey = "csrf_token"

// CSRFToken returns the token stored by CSRF, or "".
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CsrfKey).(string)
	return token
}
