package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Mail metrics
var (
	MailSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_send_total",
			Help: "Total number of SMTP send attempts",
		},
		[]string{"result"}, // success, failure
	)

	MailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_send_duration_seconds",
			Help:    "Duration of SMTP send attempts",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Datastore metrics
var (
	DatastorePingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_ping_total",
			Help: "Total number of datastore readiness pings",
		},
		[]string{"backend", "result"}, // result: success, failure
	)
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
