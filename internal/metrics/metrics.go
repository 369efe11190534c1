// Package metrics provides Prometheus metrics for the robot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BundlesTotal counts processed event bundles.
	// Labels: result (ok, error)
	BundlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forceautomaton",
			Subsystem: "robot",
			Name:      "bundles_total",
			Help:      "Total number of event bundles processed",
		},
		[]string{"result"},
	)

	// MentionsTotal counts account mentions extracted from submitted blips.
	MentionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "forceautomaton",
			Subsystem: "robot",
			Name:      "mentions_total",
			Help:      "Total number of account mentions found in submitted blips",
		},
	)

	// LoginsTotal counts CRM authentications.
	// Labels: result (success, failure)
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forceautomaton",
			Subsystem: "crm",
			Name:      "logins_total",
			Help:      "Total number of CRM password logins",
		},
		[]string{"result"},
	)

	// LookupsTotal counts account lookups.
	// Labels: result (found, not_found)
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forceautomaton",
			Subsystem: "crm",
			Name:      "lookups_total",
			Help:      "Total number of account lookups by outcome",
		},
		[]string{"result"},
	)

	// QueryDuration tracks CRM query latency.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forceautomaton",
			Subsystem: "crm",
			Name:      "query_duration_seconds",
			Help:      "Duration of CRM queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SessionCacheTotal counts session cache reads.
	// Labels: result (hit, miss, error)
	SessionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forceautomaton",
			Subsystem: "session",
			Name:      "cache_total",
			Help:      "Total number of CRM session cache reads by outcome",
		},
		[]string{"result"},
	)
)
