package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandamasta/pwcheck/internal/config"
	"github.com/pandamasta/pwcheck/internal/metrics"
	"github.com/pandamasta/pwcheck/models"
	"github.com/pandamasta/pwcheck/password"
)

type recordedCheck struct {
	result   password.Result
	username string
	source   string
}

type fakeStore struct {
	mu      sync.Mutex
	checks  []recordedCheck
	failErr error
}

func (s *fakeStore) Record(_ context.Context, res password.Result, username, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.checks = append(s.checks, recordedCheck{res, username, source})
	return nil
}

func (s *fakeStore) Stats(context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	st := &models.Stats{ByReason: map[password.Reason]int64{}}
	for _, c := range s.checks {
		st.ByReason[c.result.Reason]++
		st.Total++
	}
	return st, nil
}

func (s *fakeStore) Recent(context.Context, int) ([]models.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CheckRecord, 0, len(s.checks))
	for _, c := range s.checks {
		out = append(out, *models.NewCheckRecord(c.result, c.username, c.source, time.Now()))
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, store CheckStore) (http.Handler, *prometheus.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Limit = 0
	reg := prometheus.NewRegistry()
	v := password.NewValidator(metrics.NewValidation(reg))
	return Routes(Deps{Config: cfg, Validator: v, Store: store, Registry: reg, Logger: quietLogger()}), reg
}

// postForm submits form with a matching CSRF cookie and field.
func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	form.Set("csrf_token", "test-token")
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewResultView(t *testing.T) {
	valid := NewResultView(password.Validate("Str0ngPass!", ""))
	assert.Equal(t, "valid", valid.Class)
	assert.Equal(t, "Password is VALID! ✅", valid.Text)
	assert.Empty(t, valid.Detail)

	invalid := NewResultView(password.Validate("password 123", "bob"))
	assert.Equal(t, "invalid", invalid.Class)
	assert.Equal(t, "Password is INVALID! ❌", invalid.Text)
	assert.Equal(t, "contains_space", invalid.Reason)
	assert.Equal(t, "Password must not contain spaces.", invalid.Detail)
}

func TestCheckForm(t *testing.T) {
	h, _ := newServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="togglePassword"`)
	assert.Contains(t, body, `type="password"`)
	assert.Contains(t, body, `name="csrf_token"`)
	assert.NotContains(t, body, `id="result"`)
}

func TestCheckScenarios(t *testing.T) {
	tests := []struct {
		password, username string
		class, detail      string
	}{
		{"abc", "abc", "invalid", "at least 8 characters"},
		{"password 123", "bob", "invalid", "must not contain spaces"},
		{"MyAliceLogin1", "alice", "invalid", "must not contain your username"},
		{"Str0ngPass!", "", "valid", ""},
		{"Str0ngPass!", "alice", "valid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.password+"/"+tt.username, func(t *testing.T) {
			store := &fakeStore{}
			h, _ := newServer(t, store)

			rec := postForm(h, "/check", url.Values{"password": {tt.password}, "username": {tt.username}})
			require.Equal(t, http.StatusOK, rec.Code)

			body := rec.Body.String()
			assert.Contains(t, body, `class="`+tt.class+`"`)
			if tt.detail != "" {
				assert.Contains(t, body, tt.detail)
			}
			if tt.password != tt.username {
				assert.NotContains(t, body, tt.password, "password must not be echoed")
			}

			require.Len(t, store.checks, 1)
			assert.Equal(t, SourceWeb, store.checks[0].source)
			assert.Equal(t, password.Validate(tt.password, tt.username), store.checks[0].result)
		})
	}
}

func TestCheckMissingFieldsAreEmpty(t *testing.T) {
	h, _ := newServer(t, nil)
	rec := postForm(h, "/check", url.Values{})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password is INVALID!")
}

func TestCheckStoreFailureDoesNotChangeAnswer(t *testing.T) {
	h, _ := newServer(t, &fakeStore{failErr: errors.New("disk full")})
	rec := postForm(h, "/check", url.Values{"password": {"Str0ngPass!"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password is VALID!")
}

func TestCheckWithoutCSRFIsForbidden(t *testing.T) {
	h, _ := newServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader("password=Str0ngPass!"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckMethodNotAllowed(t *testing.T) {
	h, _ := newServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestValidateAPI(t *testing.T) {
	store := &fakeStore{}
	h, _ := newServer(t, store)

	rec := postJSON(h, "/api/validate", `{"password":"MyAliceLogin1","username":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, password.ReasonContainsUsername, resp.Reason)
	assert.Equal(t, "Password must not contain your username.", resp.Message)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, slog.LevelWarn, resp.Diagnostics[0].Level)
	assert.Equal(t, "Validation failed: Password contains the username.", resp.Diagnostics[0].Message)

	require.Len(t, store.checks, 1)
	assert.Equal(t, SourceAPI, store.checks[0].source)
}

func TestValidateAPIAbsentFields(t *testing.T) {
	h, _ := newServer(t, nil)
	rec := postJSON(h, "/api/validate", `{"password":"Str0ngPass!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"valid": true,
		"reason": "none",
		"diagnostics": [{"level": "INFO", "reason": "none", "message": "Validation successful!"}]
	}`, rec.Body.String())
}

func TestValidateAPIBadBody(t *testing.T) {
	h, _ := newServer(t, nil)

	rec := postJSON(h, "/api/validate", `{"password":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())

	rec = postJSON(h, "/api/validate", `{"password":"x","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(h, "/api/validate", `{"password":"`+strings.Repeat("a", maxBodyBytes)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStatsDisabled(t *testing.T) {
	h, _ := newServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	store := &fakeStore{}
	h, _ := newServer(t, store)
	postForm(h, "/check", url.Values{"password": {"abc"}, "username": {"abc"}})
	postForm(h, "/check", url.Values{"password": {"Str0ngPass!"}})
	postJSON(h, "/api/validate", `{"password":"password 123"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "3 checks")
	assert.Contains(t, rec.Body.String(), "too_short")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, int64(3), st.Total)
	assert.Equal(t, int64(1), st.ByReason[password.ReasonContainsSpace])
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newServer(t, nil)
	postJSON(h, "/api/validate", `{"password":"abc"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pwcheck_validations_total{reason="too_short",verdict="invalid"} 1`)
	assert.Contains(t, rec.Body.String(), `pwcheck_http_requests_total{method="POST",path="POST /api/validate",status="200"} 1`)
}

func TestRateLimitedCheck(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Limit = 1
	h := Routes(Deps{Config: cfg, Validator: password.NewValidator(), Logger: quietLogger()})

	first := postJSON(h, "/api/validate", `{"password":"abc"}`)
	second := postJSON(h, "/api/validate", `{"password":"abc"}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHealthz(t *testing.T) {
	h, _ := newServer(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
