// Package password checks candidate passwords against the pwcheck rules:
// minimum length, no spaces, and no username inside the password.
//
// Validate is a pure function. Diagnostics about which rule fired are handed
// to an Observer instead of being written anywhere directly, so callers decide
// whether they end up in a log, a metric, or an API response.
package password

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MinLength is the minimum number of characters a password must have.
const MinLength = 8

// Reason identifies the first rule a password failed.
type Reason int

const (
	// ReasonNone means every rule passed
	ReasonNone Reason = iota

	// ReasonTooShort means the password has fewer than MinLength characters
	ReasonTooShort

	// ReasonContainsSpace means the password contains a ' ' character
	ReasonContainsSpace

	// ReasonContainsUsername means the password contains the username, ignoring case
	ReasonContainsUsername
)

var reasonNames = map[Reason]string{
	ReasonNone:             "none",
	ReasonTooShort:         "too_short",
	ReasonContainsSpace:    "contains_space",
	ReasonContainsUsername: "contains_username",
}

// String returns the stable identifier used in logs, metrics and JSON.
func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseReason is the inverse of Reason.String.
func ParseReason(s string) (Reason, bool) {
	for r, name := range reasonNames {
		if name == s {
			return r, true
		}
	}
	return ReasonNone, false
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reason) UnmarshalText(b []byte) error {
	parsed, ok := ParseReason(string(b))
	if !ok {
		return fmt.Errorf("unknown password reason %q", b)
	}
	*r = parsed
	return nil
}

// Reasons lists every reason in rule order, ReasonNone first.
func Reasons() []Reason {
	return []Reason{ReasonNone, ReasonTooShort, ReasonContainsSpace, ReasonContainsUsername}
}

// Verdict is the boolean outcome of a check.
type Verdict bool

const (
	Invalid Verdict = false
	Valid   Verdict = true
)

func (v Verdict) String() string {
	if v {
		return "valid"
	}
	return "invalid"
}

// Result is the outcome of validating one password.
type Result struct {
	Verdict Verdict
	Reason  Reason
}

// Valid reports whether the password passed every rule.
func (r Result) Valid() bool {
	return r.Verdict == Valid
}

type resultJSON struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"reason"`
}

// MarshalJSON encodes the result as {"valid": bool, "reason": "..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Valid: r.Valid(), Reason: r.Reason})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *Result) UnmarshalJSON(b []byte) error {
	var v resultJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	r.Verdict = Verdict(v.Valid)
	r.Reason = v.Reason
	return nil
}

// Diagnostic describes what a single evaluation decided.
type Diagnostic struct {
	Level   slog.Level `json:"level"`
	Reason  Reason     `json:"reason"`
	Message string     `json:"message"`
}

var messages = map[Reason]string{
	ReasonNone:             "Validation successful!",
	ReasonTooShort:         "Validation failed: Password is less than 8 characters.",
	ReasonContainsSpace:    "Validation failed: Password contains spaces.",
	ReasonContainsUsername: "Validation failed: Password contains the username.",
}

// Message returns the human readable diagnostic text for a reason.
func Message(r Reason) string {
	return messages[r]
}

// Validate checks password against the rules in order and returns the first
// failure, or a Valid result. It has no side effects.
func Validate(password, username string) Result {
	res, _ := Evaluate(password, username)
	return res
}

// Evaluate is Validate plus the diagnostic describing the decision.
func Evaluate(password, username string) (Result, Diagnostic) {
	reason := firstFailure(password, username)
	if reason == ReasonNone {
		return Result{Verdict: Valid, Reason: ReasonNone},
			Diagnostic{Level: slog.LevelInfo, Reason: ReasonNone, Message: messages[ReasonNone]}
	}
	return Result{Verdict: Invalid, Reason: reason},
		Diagnostic{Level: slog.LevelWarn, Reason: reason, Message: messages[reason]}
}

func firstFailure(password, username string) Reason {
	if utf8.RuneCountInString(password) < MinLength {
		return ReasonTooShort
	}

	// Only U+0020; tabs and other whitespace are allowed.
	if strings.ContainsRune(password, ' ') {
		return ReasonContainsSpace
	}

	// An empty username would match every password.
	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return ReasonContainsUsername
	}

	return ReasonNone
}
