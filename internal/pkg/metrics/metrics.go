package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EnvelopesTotal counts push-channel envelopes by resource type.
	EnvelopesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailwatch_envelopes_total",
			Help: "Total number of push envelopes received, by resource type.",
		},
		[]string{"type"},
	)

	// DecodeFailuresTotal counts payloads that could not be decoded.
	DecodeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailwatch_decode_failures_total",
			Help: "Total number of push payloads dropped due to decode errors.",
		},
		[]string{"type"},
	)

	// RefetchesTotal counts REST re-fetches triggered by push notifications.
	RefetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailwatch_refetches_total",
			Help: "Total number of REST re-fetches triggered by the dispatcher.",
		},
		[]string{"resource"},
	)

	// ConnectionState reports the push channel state (1=connected).
	ConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trailwatch_connection_state",
			Help: "Push channel connection state (1=connected, 0=down).",
		},
	)

	// ReconnectsTotal counts push channel re-establishments.
	ReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trailwatch_reconnects_total",
			Help: "Total number of push channel reconnects.",
		},
	)

	// MediaTimeoutsTotal counts video waits that expired before completion.
	MediaTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trailwatch_media_timeouts_total",
			Help: "Total number of media requests that timed out.",
		},
	)

	// GatewayLatency tracks REST round-trip latency per operation.
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailwatch_gateway_latency_seconds",
			Help:    "Latency of REST gateway calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		EnvelopesTotal,
		DecodeFailuresTotal,
		RefetchesTotal,
		ConnectionState,
		ReconnectsTotal,
		MediaTimeoutsTotal,
		GatewayLatency,
	)
}
