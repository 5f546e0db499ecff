// Package metrics exposes validation outcomes as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pandamasta/pwcheck/password"
)

const Namespace = "pwcheck"

// Validation counts validation outcomes. It is a password.Observer.
type Validation struct {
	total *prometheus.CounterVec
}

// NewValidation registers the validation collectors on reg.
func NewValidation(reg prometheus.Registerer) *Validation {
	v := &Validation{
		total: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "validations_total",
				Help:      "Password validations by verdict and reason.",
			},
			[]string{"verdict", "reason"},
		),
	}
	// Pre-create every series so dashboards see zeros instead of gaps.
	for _, r := range password.Reasons() {
		v.total.WithLabelValues(verdictFor(r).String(), r.String())
	}
	return v
}

func (v *Validation) Observe(d password.Diagnostic) {
	v.total.WithLabelValues(verdictFor(d.Reason).String(), d.Reason.String()).Inc()
}

func verdictFor(r password.Reason) password.Verdict {
	return password.Verdict(r == password.ReasonNone)
}
