// Package metrics holds the Prometheus collectors of the client data layer
// and the reference backend. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "admindata"

// Outcomes of a remote call.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeOffline  = "offline"
	OutcomeCanceled = "canceled"
)

// Sources of a bridge result.
const (
	SourceCache  = "cache"
	SourceRemote = "remote"
)

// Metrics contains every collector.
type Metrics struct {
	// Client data layer
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	CacheFallbacks *prometheus.CounterVec
	BridgeFetches  *prometheus.CounterVec
	ParseSkips     *prometheus.CounterVec
	ConnectivityUp prometheus.Gauge

	// Backend
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		RemoteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "remote",
				Name:      "requests_total",
				Help:      "Remote source calls by collection, operation and outcome",
			},
			[]string{"collection", "op", "outcome"},
		),

		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "remote",
				Name:      "request_duration_seconds",
				Help:      "Duration of REST calls issued by the remote source",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),

		CacheFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "remote",
				Name:      "cache_fallbacks_total",
				Help:      "Network failures answered from the local store",
			},
			[]string{"collection"},
		),

		BridgeFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "fetches_total",
				Help:      "Bridge fetches by record type and result source",
			},
			[]string{"record_type", "source"},
		),

		ParseSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "parse_skips_total",
				Help:      "Payload elements skipped by parsers",
			},
			[]string{"record_type"},
		),

		ConnectivityUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "connectivity",
				Name:      "online",
				Help:      "1 when the backend is reachable",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Backend HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Backend HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RemoteRequests, m.RemoteDuration, m.CacheFallbacks,
		m.BridgeFetches, m.ParseSkips, m.ConnectivityUp,
		m.HTTPRequests, m.HTTPDuration,
	}
}

// Register adds every collector to reg. Collectors already registered are
// accepted.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveRemote(collection, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RemoteRequests.WithLabelValues(collection, op, outcome).Inc()
	if d > 0 {
		m.RemoteDuration.WithLabelValues(collection, op).Observe(d.Seconds())
	}
}

func (m *Metrics) Fallback(collection string) {
	if m == nil {
		return
	}
	m.CacheFallbacks.WithLabelValues(collection).Inc()
}

func (m *Metrics) BridgeFetch(recordType, source string) {
	if m == nil {
		return
	}
	m.BridgeFetches.WithLabelValues(recordType, source).Inc()
}

func (m *Metrics) ParseSkip(recordType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ParseSkips.WithLabelValues(recordType).Add(float64(n))
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.ConnectivityUp.Set(1)
	} else {
		m.ConnectivityUp.Set(0)
	}
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, statusLabel(code)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
