// Package metrics holds the prometheus collectors of the registration,
// check-in, settings and notification workflows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "goeventhub"

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
	OutcomeDuplicate = "duplicate"

	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheFallback = "fallback"
)

//nolint:gochecknoglobals
var (
	// Registrations counts registration attempts by outcome.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Number of registration attempts, differentiated by outcome.",
	}, []string{"outcome"})

	// Cancellations counts cancelled registrations.
	Cancellations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_cancellations_total",
		Help:      "Number of cancelled registrations.",
	})

	// CheckIns counts check-in attempts by method and outcome.
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkins_total",
		Help:      "Number of check-in attempts, differentiated by method and outcome.",
	}, []string{"method", "outcome"})

	// SettingsCache counts settings lookups by cache outcome.
	SettingsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settings_cache_total",
		Help:      "Number of settings lookups, differentiated by cache outcome.",
	}, []string{"outcome"})

	// Notifications counts confirmation mails by outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Number of confirmation notifications, differentiated by outcome.",
	}, []string{"outcome"})
)

// Outcome maps an error to the success or error label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}

	return OutcomeSuccess
}
