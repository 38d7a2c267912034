package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-director/logger"
)

func TestNewConnectionConfig_Defaults(t *testing.T) {
	cfg, err := NewConnectionConfig("127.0.0.1", DefaultPort)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host())
	assert.Equal(t, 23, cfg.Port())
	assert.Equal(t, "127.0.0.1:23", cfg.Addr())
	assert.False(t, cfg.IsSerial())
	assert.Empty(t, cfg.SerialPort())
	assert.Zero(t, cfg.BaudRate())

	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout())
	assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout())
	assert.Zero(t, cfg.ReplyTimeout())
	assert.Equal(t, DefaultReadChunkSize, cfg.ReadChunkSize())
	assert.Zero(t, cfg.CommandInterval())

	assert.NotNil(t, cfg.GetLogger())
}

func TestNewConnectionConfig_WithOptions(t *testing.T) {
	l := logger.NewSlog(logger.WarnLevel, false)

	cfg, err := NewConnectionConfig("::1", 4001,
		WithConnectTimeout(time.Second),
		WithWriteTimeout(2*time.Second),
		WithReplyTimeout(5*time.Second),
		WithReadChunkSize(64),
		WithCommandInterval(100*time.Millisecond),
		WithLogger(l),
	)
	require.NoError(t, err)

	assert.Equal(t, "[::1]:4001", cfg.Addr())
	assert.Equal(t, time.Second, cfg.ConnectTimeout())
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout())
	assert.Equal(t, 5*time.Second, cfg.ReplyTimeout())
	assert.Equal(t, 64, cfg.ReadChunkSize())
	assert.Equal(t, 100*time.Millisecond, cfg.CommandInterval())
	assert.Same(t, l, cfg.GetLogger())
}

func TestNewConnectionConfig_Localhost(t *testing.T) {
	cfg, err := NewConnectionConfig("localhost", 23)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host())
}

func TestNewConnectionConfig_InvalidHost(t *testing.T) {
	_, err := NewConnectionConfig("!!!invalid!!!", 23)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid host")
}

func TestNewConnectionConfig_InvalidPort(t *testing.T) {
	for _, port := range []int{-1, 0, 65536} {
		_, err := NewConnectionConfig("127.0.0.1", port)
		require.Error(t, err, port)
		assert.Contains(t, err.Error(), "out of range")
	}
}

func TestConnOptions_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  ConnOption
	}{
		{"connect timeout too short", WithConnectTimeout(MinConnectTimeout - time.Millisecond)},
		{"connect timeout too long", WithConnectTimeout(MaxConnectTimeout + time.Second)},
		{"write timeout zero", WithWriteTimeout(0)},
		{"reply timeout negative", WithReplyTimeout(-time.Second)},
		{"chunk size too small", WithReadChunkSize(MinReadChunkSize - 1)},
		{"chunk size too large", WithReadChunkSize(MaxReadChunkSize + 1)},
		{"command interval negative", WithCommandInterval(-time.Millisecond)},
		{"command interval too long", WithCommandInterval(MaxCommandInterval + time.Second)},
		{"nil dialer", WithDialer(nil)},
		{"nil logger", WithLogger(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnectionConfig("127.0.0.1", 23, tt.opt)
			require.Error(t, err)
		})
	}
}

func TestConnOptions_Boundaries(t *testing.T) {
	_, err := NewConnectionConfig("127.0.0.1", 23,
		WithConnectTimeout(MinConnectTimeout),
		WithReadChunkSize(MinReadChunkSize),
		WithCommandInterval(0),
		WithReplyTimeout(0),
	)
	require.NoError(t, err)

	_, err = NewConnectionConfig("127.0.0.1", 23,
		WithConnectTimeout(MaxConnectTimeout),
		WithReadChunkSize(MaxReadChunkSize),
		WithCommandInterval(MaxCommandInterval),
	)
	require.NoError(t, err)
}

func TestNewSerialConnectionConfig(t *testing.T) {
	cfg, err := NewSerialConnectionConfig("/dev/ttyUSB0", 19200, WithReadChunkSize(256))
	require.NoError(t, err)

	assert.True(t, cfg.IsSerial())
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort())
	assert.Equal(t, 19200, cfg.BaudRate())
	assert.Equal(t, "/dev/ttyUSB0", cfg.Addr())
	assert.Equal(t, 256, cfg.ReadChunkSize())

	sd, ok := cfg.dialer.(*SerialDialer)
	require.True(t, ok)
	assert.Equal(t, 19200, sd.mode.BaudRate)
	assert.Equal(t, 8, sd.mode.DataBits)

	_, err = NewSerialConnectionConfig("", 19200)
	require.Error(t, err)

	_, err = NewSerialConnectionConfig("COM3", 0)
	require.Error(t, err)
}

func TestSerialDialer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSerialDialer("/dev/ttyUSB0", 9600).Dial(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSerialDialer_MissingPort(t *testing.T) {
	_, err := NewSerialDialer("/dev/does-not-exist-director", 9600).Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open serial port")
}
