package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChannelResolutions tracks channel resolution attempts by provider and outcome
	ChannelResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_channel_resolutions_total",
		Help: "Total number of channel resolution attempts",
	}, []string{"provider", "outcome"})

	// UpstreamRequestDuration tracks the latency of provider API calls
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iptv_upstream_request_duration_seconds",
		Help:    "Duration of upstream provider API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"host"})

	// ProxyRequests tracks proxy requests by handling kind and response code
	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_proxy_requests_total",
		Help: "Total number of proxy requests",
	}, []string{"kind", "code"})

	// CircuitBreakerState tracks the current state of per-provider circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iptv_circuit_breaker_state",
		Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"provider"})

	// CircuitBreakerTrips tracks how many times a breaker transitioned to OPEN
	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_circuit_breaker_trips_total",
		Help: "Total number of times circuit breaker transitioned to OPEN state",
	}, []string{"provider"})
)

// RecordResolution increments the resolution counter for a provider and outcome
func RecordResolution(provider, outcome string) {
	ChannelResolutions.WithLabelValues(provider, outcome).Inc()
}

// ObserveUpstreamRequest records the duration of one upstream API request
func ObserveUpstreamRequest(host string, seconds float64) {
	UpstreamRequestDuration.WithLabelValues(host).Observe(seconds)
}

// RecordProxyRequest increments the proxy request counter
func RecordProxyRequest(kind string, code int) {
	ProxyRequests.WithLabelValues(kind, strconv.Itoa(code)).Inc()
}

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func SetCircuitBreakerState(provider, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(provider).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func RecordCircuitBreakerTrip(provider string) {
	CircuitBreakerTrips.WithLabelValues(provider).Inc()
}
