package password

import (
	"context"
	"log/slog"
	"sync"
)

// Observer receives the diagnostic of every evaluation run through a Validator.
// Implementations must not retain the password; they never see it.
type Observer interface {
	Observe(d Diagnostic)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(d Diagnostic)

func (f ObserverFunc) Observe(d Diagnostic) { f(d) }

type multiObserver []Observer

func (m multiObserver) Observe(d Diagnostic) {
	for _, o := range m {
		o.Observe(d)
	}
}

// Multi fans a diagnostic out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type slogObserver struct {
	logger *slog.Logger
}

// SlogObserver writes diagnostics to logger at the diagnostic's level.
// A nil logger means slog.Default() at the time of each call.
func SlogObserver(logger *slog.Logger) Observer {
	return slogObserver{logger: logger}
}

func (o slogObserver) Observe(d Diagnostic) {
	l := o.logger
	if l == nil {
		l = slog.Default()
	}
	l.Log(context.Background(), d.Level, "[PASSWORD] "+d.Message, "reason", d.Reason.String())
}

// Recorder keeps every diagnostic it observes. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (r *Recorder) Observe(d Diagnostic) {
	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()
}

// Diagnostics returns a copy of what has been recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.diags = nil
	r.mu.Unlock()
}

// Validator runs Validate and reports each decision to an Observer.
// The zero value validates without reporting.
type Validator struct {
	Observer Observer
}

// NewValidator returns a Validator reporting to all the given observers.
func NewValidator(observers ...Observer) *Validator {
	return &Validator{Observer: Multi(observers...)}
}

// Validate checks password and username and notifies the observer.
func (v *Validator) Validate(password, username string) Result {
	res, diag := Evaluate(password, username)
	if v != nil && v.Observer != nil {
		v.Observer.Observe(diag)
	}
	return res
}

// With returns a copy of v that also reports to extra.
func (v *Validator) With(extra ...Observer) *Validator {
	var base Observer
	if v != nil {
		base = v.Observer
	}
	return &Validator{Observer: Multi(append([]Observer{base}, extra...)...)}
}
