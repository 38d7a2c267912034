package client

import (
	"context"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-director/internal/fakedevice"
	"github.com/arloliu/go-director/logger"
)

const testDeviceName = "Director Matrix 6800 #3"

func TestMain(m *testing.M) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var level logger.LogLevel

	switch logLevel {
	case "debug":
		level = logger.DebugLevel
	case "info":
		level = logger.InfoLevel
	case "warn":
		level = logger.WarnLevel
	case "error":
		level = logger.ErrorLevel
	default:
		level = logger.InfoLevel
	}

	logger.SetLevel(level)

	os.Exit(m.Run())
}

// pipeDialer dials in-memory streams served by dev.
func pipeDialer(dev *fakedevice.Device) Dialer {
	return DialerFunc(func(ctx context.Context) (Transport, error) {
		return dev.DialPipe(ctx)
	})
}

// scriptDialer dials an in-memory stream whose device side is driven by script.
func scriptDialer(t *testing.T, script func(server net.Conn)) Dialer {
	t.Helper()

	return DialerFunc(func(_ context.Context) (Transport, error) {
		local, remote := net.Pipe()
		t.Cleanup(func() {
			_ = local.Close()
			_ = remote.Close()
		})
		go script(remote)

		return local, nil
	})
}

// newTestConn connects to a fake device over an in-memory stream.
func newTestConn(t *testing.T, dev *fakedevice.Device, opts ...ConnOption) *Connection {
	t.Helper()

	return newTestConnWithDialer(t, pipeDialer(dev), opts...)
}

func newTestConnWithDialer(t *testing.T, dialer Dialer, opts ...ConnOption) *Connection {
	t.Helper()

	cfg, err := NewConnectionConfig("127.0.0.1", DefaultPort, append([]ConnOption{WithDialer(dialer)}, opts...)...)
	require.NoError(t, err)

	conn, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readCommand reads one carriage-return terminated command from r.
func readCommand(t *testing.T, r io.Reader) string {
	t.Helper()

	var buf []byte
	b := make([]byte, 1)
	for {
		if _, err := r.Read(b); err != nil {
			return string(buf)
		}
		if b[0] == '\r' {
			return string(buf)
		}
		buf = append(buf, b[0])
	}
}

// rawTransport hides the deadline methods of a net.Conn, like a serial port.
type rawTransport struct {
	conn net.Conn
}

func (rt *rawTransport) Read(p []byte) (int, error)  { return rt.conn.Read(p) }
func (rt *rawTransport) Write(p []byte) (int, error) { return rt.conn.Write(p) }
func (rt *rawTransport) Close() error                { return rt.conn.Close() }

func silent(string) (string, bool) { return "", true }

const testTimeout = 2 * time.Second
