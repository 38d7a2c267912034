package client

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for a connection.
// RegisterMetrics exposes them to a Prometheus registry.
type ConnectionMetrics struct {
	// ConnectCount indicates the number of successful connects.
	ConnectCount atomic.Uint64
	// ConnectErrCount indicates the number of failed connects.
	ConnectErrCount atomic.Uint64

	// CommandSendCount indicates the number of commands written to the device.
	CommandSendCount atomic.Uint64
	// CommandSuccessCount indicates the number of commands confirmed with the success sentinel.
	CommandSuccessCount atomic.Uint64
	// CommandRejectCount indicates the number of commands rejected with the failure sentinel.
	CommandRejectCount atomic.Uint64
	// CommandErrCount indicates the number of exchanges that failed on the transport.
	CommandErrCount atomic.Uint64
	// ProtocolViolationCount indicates the number of replies that did not echo the command.
	ProtocolViolationCount atomic.Uint64
	// CommandInflight is 1 while an exchange is running.
	CommandInflight atomic.Int64

	// BytesSent indicates the number of bytes written.
	BytesSent atomic.Uint64
	// BytesRecv indicates the number of bytes read.
	BytesRecv atomic.Uint64
}

func (m *ConnectionMetrics) incConnectCount() {
	m.ConnectCount.Add(1)
}

func (m *ConnectionMetrics) incConnectErrCount() {
	m.ConnectErrCount.Add(1)
}

func (m *ConnectionMetrics) incCommandSendCount() {
	m.CommandSendCount.Add(1)
}

func (m *ConnectionMetrics) incCommandSuccessCount() {
	m.CommandSuccessCount.Add(1)
}

func (m *ConnectionMetrics) incCommandRejectCount() {
	m.CommandRejectCount.Add(1)
}

func (m *ConnectionMetrics) incCommandErrCount() {
	m.CommandErrCount.Add(1)
}

func (m *ConnectionMetrics) incProtocolViolationCount() {
	m.ProtocolViolationCount.Add(1)
}

func (m *ConnectionMetrics) incCommandInflight() {
	m.CommandInflight.Add(1)
}

func (m *ConnectionMetrics) decCommandInflight() {
	m.CommandInflight.Add(-1)
}

func (m *ConnectionMetrics) addBytesSent(n int) {
	m.BytesSent.Add(uint64(n)) //nolint:gosec
}

func (m *ConnectionMetrics) addBytesRecv(n int) {
	m.BytesRecv.Add(uint64(n)) //nolint:gosec
}
