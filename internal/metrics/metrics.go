package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "account_core"

// Metrics owns a dedicated registry so tests and multiple servers in one
// process never collide on the global default registerer.
type Metrics struct {
	registry             *prometheus.Registry
	notificationFailures *prometheus.CounterVec
	credentialEvents     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Outbound notifications that could not be delivered, by sender tag.",
		}, []string{"tag"}),
		credentialEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_events_total",
			Help:      "OTP and password reset operations, by event and outcome.",
		}, []string{"event", "outcome"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.notificationFailures,
		m.credentialEvents,
	)
	return m
}

func (m *Metrics) NotificationFailed(tag string) {
	m.notificationFailures.WithLabelValues(tag).Inc()
}

func (m *Metrics) CredentialEvent(event, outcome string) {
	m.credentialEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
