package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SignupsInitiatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signups_initiated_total",
			Help: "Signup attempts by result.",
		},
		[]string{"result"},
	)

	VerificationEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_verification_emails_total",
			Help: "Verification emails by delivery result.",
		},
		[]string{"result"},
	)

	SignupsFinalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signups_finalized_total",
			Help: "Verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	PendingSignupsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pending_signups_swept_total",
			Help: "Expired pending signups removed by the sweeper.",
		},
	)
)

// MustRegister registers every collector with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		SignupsInitiatedTotal,
		VerificationEmailsTotal,
		SignupsFinalizedTotal,
		PendingSignupsSweptTotal,
	)
}
