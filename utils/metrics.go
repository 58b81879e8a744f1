package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"radio-nowplaying/monitor"
)

const metricsNamespace = "radio_nowplaying"

// Metrics records monitor cycles for /metrics and /health.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec
	FailuresTotal   *prometheus.CounterVec
	PersistTotal    *prometheus.CounterVec
	RuleHits        *prometheus.CounterVec
	LastChangeTime  prometheus.Gauge
	LastSuccessTime prometheus.Gauge

	registry *prometheus.Registry

	mu          sync.RWMutex
	started     time.Time
	lastCycle   time.Time
	lastTrack   string
	lastRule    string
	lastFailure string
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cycles_total",
			Help:      "Completed poll cycles by whether the track changed",
		}, []string{"changed"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cycle_failures_total",
			Help:      "Failed poll cycles by stage",
		}, []string{"stage"}),
		PersistTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persist_total",
			Help:      "Persist attempts by outcome",
		}, []string{"outcome"}),
		RuleHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rule_hits_total",
			Help:      "Extracted candidates by rule tag",
		}, []string{"rule"}),
		LastChangeTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_change_timestamp_seconds",
			Help:      "Unix time of the last track change",
		}),
		LastSuccessTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cycle",
		}),
		registry: reg,
		started:  time.Now(),
	}
}

func (m *Metrics) RecordCycle(res monitor.Result) {
	changed := "false"
	if res.Changed {
		changed = "true"
		m.LastChangeTime.Set(float64(res.At.Unix()))
	}
	m.CyclesTotal.WithLabelValues(changed).Inc()
	m.RuleHits.WithLabelValues(string(res.Candidate.Rule)).Inc()
	if res.Persist != monitor.PersistNone {
		m.PersistTotal.WithLabelValues(res.Persist).Inc()
	}
	m.LastSuccessTime.Set(float64(res.At.Unix()))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCycle = res.At
	m.lastTrack = res.Candidate.Text
	m.lastRule = string(res.Candidate.Rule)
	m.lastFailure = ""
}

func (m *Metrics) RecordFailure(stage monitor.Stage) {
	m.FailuresTotal.WithLabelValues(string(stage)).Inc()
	if stage == monitor.StagePersist {
		m.PersistTotal.WithLabelValues(monitor.PersistFailed).Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFailure = string(stage)
}

// Handler serves the metrics registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type snapshot struct {
	lastCycle   time.Time
	lastTrack   string
	lastRule    string
	lastFailure string
}

func (m *Metrics) snapshot() snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last := m.lastCycle
	if last.IsZero() {
		last = m.started
	}
	return snapshot{
		lastCycle:   last,
		lastTrack:   m.lastTrack,
		lastRule:    m.lastRule,
		lastFailure: m.lastFailure,
	}
}
