// Package metrics exposes Prometheus counters for redaction activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedactionsTotal counts completed redaction operations.
	RedactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piigate_redactions_total",
			Help: "Total number of redaction operations performed",
		},
	)

	// UnredactionsTotal counts completed unredaction operations.
	UnredactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piigate_unredactions_total",
			Help: "Total number of unredaction operations performed",
		},
	)

	// EntitiesDetected counts detected entities by kind.
	EntitiesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piigate_entities_detected_total",
			Help: "Total number of entities detected, labeled by entity kind",
		},
		[]string{"kind"},
	)

	// UnredactIssues counts unknown-label issues by classification.
	UnredactIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piigate_unredact_issues_total",
			Help: "Total number of unknown labels encountered during unredaction, labeled by classification",
		},
		[]string{"classification"},
	)

	// SessionsCreated counts redaction sessions created through the API.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piigate_sessions_created_total",
			Help: "Total number of redaction sessions created",
		},
	)

	// DetectorFailures counts detector invocations that returned an error.
	DetectorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "piigate_detector_failures_total",
			Help: "Total number of detector invocations that failed",
		},
	)
)
