package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swa/internal/terminator"
)

type metrics struct {
	registry     *prometheus.Registry
	terminations *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swa",
			Name:      "session_terminations_total",
			Help:      "Session terminations by reason and result.",
		}, []string{"reason", "result"}),
	}
	m.registry.MustRegister(
		m.terminations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observe(_ context.Context, o terminator.Outcome) {
	result := "ok"
	if o.Err != nil {
		result = "error"
	}
	m.terminations.WithLabelValues(string(o.Reason), result).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
