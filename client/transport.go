package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ziutek/telnet"
	"go.bug.st/serial"
)

// Transport is the byte stream to the device's control port.
//
// Read returning zero bytes or io.EOF means the stream is closed. Close must unblock a pending Read.
type Transport interface {
	io.ReadWriteCloser
}

// deadlineTransport is implemented by transports that support I/O deadlines, such as TCP streams.
type deadlineTransport interface {
	SetDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens a Transport to the device.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) { return f(ctx) }

// tcpDialer connects to the control port over TCP.
//
// The control port sits behind a telnet server. The stream is wrapped in a telnet.Conn, which refuses
// any option negotiation the server starts and strips IAC sequences, so the client only ever sees the
// raw command channel.
type tcpDialer struct {
	addr    string
	timeout time.Duration
}

func newTCPDialer(addr string, timeout time.Duration) *tcpDialer {
	return &tcpDialer{addr: addr, timeout: timeout}
}

func (d *tcpDialer) Dial(ctx context.Context) (Transport, error) {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}

	dialCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", d.addr)
	if err != nil {
		return nil, err
	}

	tc, err := telnet.NewConn(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return tc, nil
}

// SerialDialer opens the control port through a serial device with 8 data bits, no parity and one
// stop bit.
type SerialDialer struct {
	portName string
	mode     serial.Mode
}

var _ Dialer = (*SerialDialer)(nil)

// NewSerialDialer creates a SerialDialer for the device portName at the given baud rate.
func NewSerialDialer(portName string, baudRate int) *SerialDialer {
	return &SerialDialer{
		portName: portName,
		mode: serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
}

// Dial opens the serial device. The port is left without a read timeout so that a zero-length read
// only ever means the port was closed.
func (d *SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.mode
	port, err := serial.Open(d.portName, &mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.portName, err)
	}

	return port, nil
}
