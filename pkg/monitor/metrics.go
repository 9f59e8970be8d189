package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the agent's own counters, exposed for scraping.
type Metrics struct {
	Collections    prometheus.Counter
	ReportsSent    prometheus.Counter
	SendErrors     prometheus.Counter
	ProtocolErrors prometheus.Counter
	SampleErrors   *prometheus.CounterVec
	DroppedTicks   prometheus.Counter
	Subscribers    prometheus.Gauge
	Running        prometheus.Gauge
	CPUPercent     prometheus.Gauge
	MemoryPercent  prometheus.Gauge
}

// NewMetrics creates the metrics labelled with the monitor id and registers
// them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer, id string) *Metrics {
	labels := prometheus.Labels{"monitor": id}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "scout", Name: name, Help: help, ConstLabels: labels}
	}

	m := &Metrics{
		Collections: prometheus.NewCounter(prometheus.CounterOpts(
			opts("collections_total", "Collect steps executed."))),
		ReportsSent: prometheus.NewCounter(prometheus.CounterOpts(
			opts("reports_sent_total", "Reports handed to the transport."))),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts(
			opts("send_errors_total", "Reports the transport refused."))),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts(
			opts("protocol_errors_total", "Inbound messages that failed to decode."))),
		SampleErrors: prometheus.NewCounterVec(prometheus.CounterOpts(
			opts("sample_errors_total", "Sampler updates that fell back to defaults.")), []string{"sampler"}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts(
			opts("dropped_ticks_total", "Timer ticks discarded because the mailbox was full."))),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts(
			opts("subscribers", "Entries in the subscriber set."))),
		Running: prometheus.NewGauge(prometheus.GaugeOpts(
			opts("running", "1 while the collect timer is scheduled."))),
		CPUPercent: prometheus.NewGauge(prometheus.GaugeOpts(
			opts("cpu_percent", "Latest instantaneous CPU percentage."))),
		MemoryPercent: prometheus.NewGauge(prometheus.GaugeOpts(
			opts("memory_percent", "Latest memory usage relative to the limit."))),
	}
	if reg != nil {
		reg.MustRegister(
			m.Collections, m.ReportsSent, m.SendErrors, m.ProtocolErrors, m.SampleErrors,
			m.DroppedTicks, m.Subscribers, m.Running, m.CPUPercent, m.MemoryPercent,
		)
	}
	return m
}
