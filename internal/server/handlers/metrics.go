package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap"
)

// Metrics owns the application registry. It records state holder fetch
// outcomes and serves everything registered on /metrics.
type Metrics struct {
	logger        *zap.Logger
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_state_fetch_total",
			Help: "Total number of state holder fetches by holder and outcome.",
		}, []string{"holder", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weather_state_fetch_duration_seconds",
			Help:    "Duration of state holder fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"holder"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchTotal,
		m.fetchDuration,
	)

	return m
}

// Registry is where other components register their collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFetch records one fetch; the outcome is "ok" or the error kind.
func (m *Metrics) RecordFetch(_ context.Context, holder string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = weather.KindOf(err).String()
	}

	m.fetchTotal.WithLabelValues(holder, outcome).Inc()
	m.fetchDuration.WithLabelValues(holder).Observe(duration.Seconds())
}

func (m *Metrics) ServeMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	}))
}
