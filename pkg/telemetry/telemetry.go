// Package telemetry exposes Prometheus instrumentation for the probing
// engine. A nil *Metrics is valid and turns every record call into a no-op,
// so library callers that do not scrape metrics pay nothing.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine's Prometheus collectors.
type Metrics struct {
	probesIssued prometheus.Counter
	probesFailed prometheus.Counter
	activeScans  prometheus.Gauge
	findings     *prometheus.CounterVec
}

// New creates the metric set and registers it with reg. A nil registerer
// falls back to the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		probesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "probekit_probes_issued_total",
			Help: "Total probe requests issued.",
		}),
		probesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "probekit_probes_failed_total",
			Help: "Total probe requests that ended in a transport error.",
		}),
		activeScans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "probekit_active_scans",
			Help: "Scans currently in a non-terminal state.",
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probekit_findings_total",
			Help: "Findings emitted, by vulnerability class and severity.",
		}, []string{"class", "severity"}),
	}
	reg.MustRegister(m.probesIssued, m.probesFailed, m.activeScans, m.findings)
	return m
}

// ProbeIssued records one issued probe.
func (m *Metrics) ProbeIssued() {
	if m == nil {
		return
	}
	m.probesIssued.Inc()
}

// ProbeFailed records one transport-level probe failure.
func (m *Metrics) ProbeFailed() {
	if m == nil {
		return
	}
	m.probesFailed.Inc()
}

// ScanStarted marks a scan as active.
func (m *Metrics) ScanStarted() {
	if m == nil {
		return
	}
	m.activeScans.Inc()
}

// ScanFinished marks a scan as terminal.
func (m *Metrics) ScanFinished() {
	if m == nil {
		return
	}
	m.activeScans.Dec()
}

// FindingEmitted records one emitted finding.
func (m *Metrics) FindingEmitted(class, severity string) {
	if m == nil {
		return
	}
	m.findings.WithLabelValues(class, severity).Inc()
}
