package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-director/logger"
)

// Default configuration values.
const (
	DefaultPort           = 23
	DefaultConnectTimeout = 3 * time.Second
	DefaultWriteTimeout   = 3 * time.Second
	DefaultReadChunkSize  = 1024
)

// Configuration range limits.
const (
	MinConnectTimeout = 100 * time.Millisecond
	MaxConnectTimeout = 60 * time.Second

	MinReadChunkSize = 16
	MaxReadChunkSize = 64 * 1024

	MaxCommandInterval = 10 * time.Second
)

// ConnectionConfig holds the configuration of a Director control-port connection.
type ConnectionConfig struct {
	host string
	port int

	// serialPort is set when the control port is reached through a serial adapter.
	serialPort string
	baudRate   int

	connectTimeout time.Duration
	writeTimeout   time.Duration

	// replyTimeout bounds one command/reply exchange. Zero leaves it to the caller's context.
	replyTimeout time.Duration

	readChunkSize int

	// commandInterval is the minimum spacing between two commands. Zero disables pacing.
	commandInterval time.Duration

	dialer Dialer
	logger logger.Logger
}

// NewConnectionConfig creates the configuration of a TCP connection to the control port at host:port.
//
// opts are functional options applied in order; see the With* functions.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := newDefaultConfig()

	if err := cfg.setHost(host); err != nil {
		return nil, err
	}
	if err := cfg.setPort(port); err != nil {
		return nil, err
	}

	if err := cfg.applyOptions(opts); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewSerialConnectionConfig creates the configuration of a connection that reaches the control port
// through the serial device portName, e.g. "/dev/ttyUSB0" or "COM3", at the given baud rate.
func NewSerialConnectionConfig(portName string, baudRate int, opts ...ConnOption) (*ConnectionConfig, error) {
	if portName == "" {
		return nil, errors.New("client: serial port name is empty")
	}
	if baudRate <= 0 {
		return nil, fmt.Errorf("client: baud rate %d must be positive", baudRate)
	}

	cfg := newDefaultConfig()
	cfg.serialPort = portName
	cfg.baudRate = baudRate
	cfg.dialer = NewSerialDialer(portName, baudRate)

	if err := cfg.applyOptions(opts); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newDefaultConfig() *ConnectionConfig {
	return &ConnectionConfig{
		port:           DefaultPort,
		connectTimeout: DefaultConnectTimeout,
		writeTimeout:   DefaultWriteTimeout,
		readChunkSize:  DefaultReadChunkSize,
		logger:         logger.GetLogger(),
	}
}

func (cfg *ConnectionConfig) applyOptions(opts []ConnOption) error {
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return err
		}
	}

	return nil
}

func (cfg *ConnectionConfig) setHost(host string) error {
	if ip := net.ParseIP(host); ip != nil {
		cfg.host = host
		return nil
	}

	host = strings.TrimPrefix(host, ".")
	host = strings.TrimSuffix(host, ".")
	if _, err := net.LookupHost(host); err == nil {
		cfg.host = host
		return nil
	}

	return fmt.Errorf("client: invalid host %q", host)
}

func (cfg *ConnectionConfig) setPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("client: port %d out of range [1, 65535]", port)
	}
	cfg.port = port

	return nil
}

// --- Getters ---

// Host returns the configured host, empty for serial connections.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the configured TCP port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// Addr returns "host:port" for TCP connections and the device name for serial connections.
func (cfg *ConnectionConfig) Addr() string {
	if cfg.serialPort != "" {
		return cfg.serialPort
	}

	return net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
}

// IsSerial reports whether the connection goes through a serial device.
func (cfg *ConnectionConfig) IsSerial() bool { return cfg.serialPort != "" }

// SerialPort returns the serial device name, empty for TCP connections.
func (cfg *ConnectionConfig) SerialPort() string { return cfg.serialPort }

// BaudRate returns the serial baud rate, zero for TCP connections.
func (cfg *ConnectionConfig) BaudRate() int { return cfg.baudRate }

// ConnectTimeout returns the timeout for establishing the stream.
func (cfg *ConnectionConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// WriteTimeout returns the timeout for writing one command.
func (cfg *ConnectionConfig) WriteTimeout() time.Duration { return cfg.writeTimeout }

// ReplyTimeout returns the timeout of a full exchange, zero when disabled.
func (cfg *ConnectionConfig) ReplyTimeout() time.Duration { return cfg.replyTimeout }

// ReadChunkSize returns the size of each read from the stream.
func (cfg *ConnectionConfig) ReadChunkSize() int { return cfg.readChunkSize }

// CommandInterval returns the minimum spacing between commands, zero when pacing is disabled.
func (cfg *ConnectionConfig) CommandInterval() time.Duration { return cfg.commandInterval }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithConnectTimeout sets the timeout for establishing the stream, within [100ms, 60s].
//
// The default value is 3 seconds.
func WithConnectTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < MinConnectTimeout || d > MaxConnectTimeout {
			return fmt.Errorf("client: connect timeout %v out of range [%v, %v]", d, MinConnectTimeout, MaxConnectTimeout)
		}
		cfg.connectTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the write deadline of one command on transports that support deadlines.
//
// The default value is 3 seconds.
func WithWriteTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("client: write timeout must be positive")
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithReplyTimeout bounds every command/reply exchange. An exchange that exceeds it fails with a
// ConnectionError and leaves the connection unusable until reopened.
//
// The protocol defines no timeout, so the default is zero: exchanges are bounded only by the
// context passed to each call.
func WithReplyTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 {
			return errors.New("client: reply timeout must not be negative")
		}
		cfg.replyTimeout = d

		return nil
	})
}

// WithReadChunkSize sets the size of each read from the stream, within [16, 65536].
//
// The default value is 1024.
func WithReadChunkSize(size int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if size < MinReadChunkSize || size > MaxReadChunkSize {
			return fmt.Errorf("client: read chunk size %d out of range [%d, %d]", size, MinReadChunkSize, MaxReadChunkSize)
		}
		cfg.readChunkSize = size

		return nil
	})
}

// WithCommandInterval enforces a minimum spacing between consecutive commands, within [0, 10s].
// Zero disables pacing, which is the default.
func WithCommandInterval(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 || d > MaxCommandInterval {
			return fmt.Errorf("client: command interval %v out of range [0, %v]", d, MaxCommandInterval)
		}
		cfg.commandInterval = d

		return nil
	})
}

// WithDialer replaces the transport used to reach the device.
func WithDialer(d Dialer) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d == nil {
			return errors.New("client: dialer must not be nil")
		}
		cfg.dialer = d

		return nil
	})
}

// WithLogger sets the logger for the connection.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("client: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
