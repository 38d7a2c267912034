package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-director/director"
	"github.com/arloliu/go-director/internal/fakedevice"
)

func listenLoopback(t *testing.T) (net.Listener, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)

	return ln, tcpAddr.Port
}

func TestTCPTransport_FakeDevice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dev := fakedevice.New(testDeviceName)
	ln, port := listenLoopback(t)
	go func() { _ = dev.ListenAndServe(ctx, ln) }()

	cfg, err := NewConnectionConfig("127.0.0.1", port, WithConnectTimeout(time.Second))
	require.NoError(t, err)

	conn, err := Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	succeeded, err := conn.RouteInput(ctx, director.AnalogOutput(3), director.AnalogInput(2))
	require.NoError(t, err)
	assert.True(t, succeeded)

	status, err := conn.SystemStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDeviceName, status.DeviceName())

	z3, ok := status.OutputByID(director.AnalogOutput(3))
	require.True(t, ok)
	assert.Equal(t, director.AnalogInput(2), z3.Input)
}

func TestTCPTransport_StripsOptionNegotiation(t *testing.T) {
	ln, port := listenLoopback(t)

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		server, err := ln.Accept()
		if err != nil {
			return
		}
		defer server.Close()

		_ = readCommand(t, server)
		// IAC DO TERMINAL-TYPE ahead of the echo
		_, _ = server.Write([]byte("\xff\xfd\x18Z1on\r01Z1on\r"))
		<-done
	}()

	cfg, err := NewConnectionConfig("127.0.0.1", port)
	require.NoError(t, err)

	conn, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	succeeded, err := conn.SetPower(context.Background(), director.AnalogOutput(1), true)
	require.NoError(t, err)
	assert.True(t, succeeded)
	assert.True(t, conn.Usable())
}

func TestTCPTransport_Refused(t *testing.T) {
	ln, port := listenLoopback(t)
	require.NoError(t, ln.Close())

	cfg, err := NewConnectionConfig("127.0.0.1", port, WithConnectTimeout(MinConnectTimeout))
	require.NoError(t, err)

	_, err = Connect(context.Background(), cfg)
	require.ErrorIs(t, err, director.ErrConnection)
}
