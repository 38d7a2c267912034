package client

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "director"

// RegisterMetrics registers collectors reading m with reg. constLabels, for example the device
// address, are attached to every series so several connections can share a registry.
func RegisterMetrics(reg prometheus.Registerer, m *ConnectionMetrics, constLabels prometheus.Labels) error {
	counters := []struct {
		name  string
		help  string
		value *atomic.Uint64
	}{
		{"connects_total", "Successful connects to the control port.", &m.ConnectCount},
		{"connect_errors_total", "Failed connects to the control port.", &m.ConnectErrCount},
		{"commands_sent_total", "Commands written to the device.", &m.CommandSendCount},
		{"commands_succeeded_total", "Commands confirmed with the success sentinel.", &m.CommandSuccessCount},
		{"commands_rejected_total", "Commands rejected with the failure sentinel.", &m.CommandRejectCount},
		{"command_errors_total", "Exchanges failed on the transport.", &m.CommandErrCount},
		{"protocol_violations_total", "Replies that did not echo the command.", &m.ProtocolViolationCount},
		{"bytes_sent_total", "Bytes written to the control port.", &m.BytesSent},
		{"bytes_received_total", "Bytes read from the control port.", &m.BytesRecv},
	}

	collectors := make([]prometheus.Collector, 0, len(counters)+1)
	for _, c := range counters {
		v := c.value
		collectors = append(collectors, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        c.name,
			Help:        c.help,
			ConstLabels: constLabels,
		}, func() float64 { return float64(v.Load()) }))
	}

	collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "commands_inflight",
		Help:        "Exchanges currently waiting for a reply.",
		ConstLabels: constLabels,
	}, func() float64 { return float64(m.CommandInflight.Load()) }))

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}
