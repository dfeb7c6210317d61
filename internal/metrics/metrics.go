// Package metrics holds the Prometheus collectors for the auth flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledgerly"

var (
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Sign-in attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	AccountsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Accounts created by authentication origin",
		},
		[]string{"origin"},
	)

	IdentityLinksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_links_total",
			Help:      "External identities linked to existing accounts",
		},
	)

	CredentialsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credentials_issued_total",
			Help:      "Session credentials signed",
		},
	)

	ProviderExchangeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_exchange_duration_seconds",
			Help:      "Time spent exchanging an authorization code and fetching the profile",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "outcome"},
	)

	CleanupDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Rows removed by the cleanup job",
		},
		[]string{"target"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being served",
		},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
