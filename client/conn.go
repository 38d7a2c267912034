package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/go-director/director"
	"github.com/arloliu/go-director/logger"
)

// Connection is a session with the control port of one Director amplifier.
//
// The device answers one command at a time and its replies carry no correlation id, so a Connection
// runs at most one command/reply exchange at any moment; concurrent callers queue on an internal
// mutex. Close may be called from any goroutine and makes a pending exchange fail fast.
//
// After a protocol violation or a transport failure the byte stream can no longer be trusted. The
// connection then rejects every exchange with the kind of the original failure until Open is called
// again.
type Connection struct {
	cfg     *ConnectionConfig
	logger  logger.Logger
	dialer  Dialer
	reader  replyReader
	limiter *rate.Limiter

	state AtomicOpState

	// exchangeMutex serializes exchanges and Open.
	exchangeMutex sync.Mutex

	transport      Transport
	transportMutex sync.Mutex

	// fault holds the director.ErrorKind that left the stream unusable, zero while healthy.
	fault atomic.Uint32

	cache   *statusCache
	metrics ConnectionMetrics
}

// NewConnection creates a closed Connection for cfg. Call Open to establish the stream.
func NewConnection(cfg *ConnectionConfig) (*Connection, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}

	dialer := cfg.dialer
	if dialer == nil {
		dialer = newTCPDialer(cfg.Addr(), cfg.connectTimeout)
	}

	conn := &Connection{
		cfg:    cfg,
		logger: cfg.logger.With("host", cfg.Addr()),
		dialer: dialer,
		reader: replyReader{chunkSize: cfg.readChunkSize},
		cache:  newStatusCache(),
	}

	if cfg.commandInterval > 0 {
		conn.limiter = rate.NewLimiter(rate.Every(cfg.commandInterval), 1)
	}

	return conn, nil
}

// Connect creates a Connection for cfg and opens it.
func Connect(ctx context.Context, cfg *ConnectionConfig) (*Connection, error) {
	conn, err := NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	if err := conn.Open(ctx); err != nil {
		return nil, err
	}

	return conn, nil
}

// GetLogger returns the logger of the connection.
func (c *Connection) GetLogger() logger.Logger {
	return c.logger
}

// GetMetrics returns the metrics of the connection.
func (c *Connection) GetMetrics() *ConnectionMetrics {
	return &c.metrics
}

// State returns the lifecycle state of the connection.
func (c *Connection) State() OpState {
	return c.state.Get()
}

// Usable reports whether the connection is open and its stream is still synchronized.
func (c *Connection) Usable() bool {
	return c.state.IsOpened() && c.fault.Load() == 0
}

// Open establishes the stream to the device.
//
// Opening an open, healthy connection is a no-op. Opening a connection left unusable by an earlier
// failure discards the old stream and dials a new one. Open fails with a director ConnectionError
// when the device refuses the connection or the connect timeout expires.
func (c *Connection) Open(ctx context.Context) error {
	if c.state.IsOpened() {
		if c.fault.Load() == 0 {
			return nil
		}
		_ = c.Close()
	}

	c.exchangeMutex.Lock()
	defer c.exchangeMutex.Unlock()

	if !c.state.ToOpening() {
		if c.state.IsOpened() {
			return nil
		}

		return ErrConnBusy
	}

	c.logger.Debug("connecting", "method", "Open")

	t, err := c.dialer.Dial(ctx)
	if err != nil {
		c.state.Set(ClosedState)
		c.metrics.incConnectErrCount()
		c.logger.Error("failed to connect", "method", "Open", "error", err)

		return director.NewConnectionError("", "connect to "+c.cfg.Addr(), err)
	}

	c.setTransport(t)
	c.fault.Store(0)
	c.cache.clear()

	if !c.state.ToOpened() {
		// closed while dialing
		_ = c.closeTransport()
		return director.NewConnectionError("", "connect to "+c.cfg.Addr(), ErrConnClosed)
	}

	c.metrics.incConnectCount()
	c.logger.Info("connected", "method", "Open")

	return nil
}

// Close closes the stream. It does not wait for an outstanding reply: a pending exchange fails with
// a director ConnectionError. Closing a closed connection is a no-op.
func (c *Connection) Close() error {
	if !c.state.ToClosing() {
		return nil
	}

	err := c.closeTransport()
	c.state.ToClosed()
	c.logger.Info("connection closed", "method", "Close")

	return err
}

func (c *Connection) setTransport(t Transport) {
	c.transportMutex.Lock()
	c.transport = t
	c.transportMutex.Unlock()
}

func (c *Connection) getTransport() Transport {
	c.transportMutex.Lock()
	defer c.transportMutex.Unlock()

	return c.transport
}

func (c *Connection) closeTransport() error {
	c.transportMutex.Lock()
	t := c.transport
	c.transport = nil
	c.transportMutex.Unlock()

	if t == nil {
		return nil
	}

	return t.Close()
}

// markUnusable records kind as the reason the stream can no longer be used and releases the stream.
// The first recorded kind wins.
func (c *Connection) markUnusable(kind director.ErrorKind) {
	if c.fault.CompareAndSwap(0, uint32(kind)) {
		c.logger.Warn("connection unusable until reopened", "reason", kind)
	}
	_ = c.closeTransport()
}

// SendCommand writes text terminated by a carriage return and reads until the reply holds
// expectedLines newline-terminated lines or the device closes the stream.
//
// The raw reply, the echo of the command followed by the payload, is returned as read. A truncated
// reply is returned without error; the connection is then unusable until reopened.
func (c *Connection) SendCommand(ctx context.Context, text string, expectedLines int) (string, error) {
	if text == "" || strings.ContainsAny(text, "\r\n") {
		return "", fmt.Errorf("%w: command text %q", director.ErrInvalidArgument, text)
	}
	if expectedLines < 1 {
		return "", fmt.Errorf("%w: expected lines %d must be positive", director.ErrInvalidArgument, expectedLines)
	}

	reply, _, err := c.exchange(ctx, director.Command{Text: text, ReplyLines: expectedLines})

	return reply, err
}

// Exchange sends cmd and interprets the reply.
//
// For commands answered with a status sentinel, succeeded reports whether the device confirmed the
// command; a rejection is returned as a director BadCommandError. For the status query payload is
// the report text. A reply that does not echo the command is a director ProtocolViolationError and
// leaves the connection unusable until reopened.
func (c *Connection) Exchange(ctx context.Context, cmd director.Command) (bool, string, error) {
	reply, truncated, err := c.exchange(ctx, cmd)
	if err != nil {
		return false, "", err
	}

	succeeded, payload, err := director.Interpret(cmd.Text, reply, cmd.ExpectStatusCode)
	if err != nil {
		kind, _ := director.KindOf(err)
		switch kind {
		case director.ProtocolViolationError:
			c.metrics.incProtocolViolationCount()
			c.markUnusable(director.ProtocolViolationError)
			c.logger.Error("protocol violation", "command", cmd.Text, "error", err)
		case director.BadCommandError:
			c.metrics.incCommandRejectCount()
			c.logger.Warn("command rejected", "command", cmd.Text)
		}

		return false, "", err
	}

	if truncated {
		c.metrics.incCommandErrCount()
		return false, "", director.NewConnectionError(cmd.Text, "read reply", ErrReplyTruncated)
	}

	if succeeded {
		c.metrics.incCommandSuccessCount()
	}

	return succeeded, payload, nil
}

// exchange performs one write and the matching read under the exchange mutex.
// truncated is true when the device closed the stream before the reply completed.
func (c *Connection) exchange(ctx context.Context, cmd director.Command) (reply string, truncated bool, err error) {
	c.exchangeMutex.Lock()
	defer c.exchangeMutex.Unlock()

	if !c.state.IsOpened() {
		return "", false, director.NewConnectionError(cmd.Text, "", ErrConnClosed)
	}
	if kind := director.ErrorKind(c.fault.Load()); kind != 0 {
		return "", false, &director.Error{
			Kind:    kind,
			Command: cmd.Text,
			Detail:  "stream unusable after an earlier failure, reopen the connection",
		}
	}

	t := c.getTransport()
	if t == nil {
		return "", false, director.NewConnectionError(cmd.Text, "", ErrConnClosed)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", false, err
		}
	}

	if c.cfg.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.replyTimeout)
		defer cancel()
	}

	// nothing written yet, the stream is still in sync
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	c.metrics.incCommandInflight()
	defer c.metrics.decCommandInflight()

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(interrupted)
		if dt, ok := t.(deadlineTransport); ok {
			_ = dt.SetDeadline(time.Unix(1, 0))
			return
		}
		_ = t.Close()
	})
	defer func() {
		if stop() {
			return
		}
		<-interrupted
		// canceled after the reply completed
		if dt, ok := t.(deadlineTransport); ok && c.fault.Load() == 0 {
			_ = dt.SetDeadline(time.Time{})
			return
		}
		c.markUnusable(director.ConnectionError)
	}()

	isDebug := c.logger.Level() == logger.DebugLevel
	if isDebug {
		c.logger.Debug("send command", "method", "exchange", "command", cmd.Text)
	}

	if dt, ok := t.(deadlineTransport); ok && c.cfg.writeTimeout > 0 && ctx.Err() == nil {
		_ = dt.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	}

	n, err := t.Write(cmd.Frame())
	c.metrics.addBytesSent(n)
	if err != nil {
		return "", false, c.transportFailure(ctx, cmd, "write command", err)
	}
	c.metrics.incCommandSendCount()

	reply, eof, err := c.reader.ReadReply(t, func(acc string) bool {
		return director.ReplyComplete(cmd, acc)
	})
	c.metrics.addBytesRecv(len(reply))
	if err != nil {
		return reply, false, c.transportFailure(ctx, cmd, "read reply", err)
	}

	if isDebug {
		c.logger.Debug("received reply", "method", "exchange", "command", cmd.Text, "reply", reply)
	}

	if eof {
		c.logger.Warn("stream closed before the reply completed", "command", cmd.Text, "received", len(reply))
		c.markUnusable(director.ConnectionError)
	}

	return reply, eof, nil
}

// transportFailure marks the connection unusable and wraps err, or the context error when the
// exchange was interrupted, into a director ConnectionError.
func (c *Connection) transportFailure(ctx context.Context, cmd director.Command, op string, err error) error {
	c.metrics.incCommandErrCount()
	c.markUnusable(director.ConnectionError)

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
		op += " interrupted"
	}
	c.logger.Error("exchange failed", "command", cmd.Text, "op", op, "error", err)

	return director.NewConnectionError(cmd.Text, op, err)
}

// RouteInput routes in to out. succeeded reports whether the device confirmed the command.
func (c *Connection) RouteInput(ctx context.Context, out director.OutputID, in director.InputID) (bool, error) {
	cmd, err := director.RouteCommand(out, in)
	if err != nil {
		return false, err
	}

	succeeded, _, err := c.Exchange(ctx, cmd)
	if err != nil || !succeeded {
		return succeeded, err
	}

	c.cache.update(out, func(st *director.OutputStatus) { st.Input = in })

	return true, nil
}

// SetPower switches out on or off. succeeded reports whether the device confirmed the command.
func (c *Connection) SetPower(ctx context.Context, out director.OutputID, on bool) (bool, error) {
	cmd, err := director.PowerCommand(out, on)
	if err != nil {
		return false, err
	}

	succeeded, _, err := c.Exchange(ctx, cmd)
	if err != nil || !succeeded {
		return succeeded, err
	}

	c.cache.update(out, func(st *director.OutputStatus) { st.Powered = on })

	return true, nil
}

// SetVolume sets the volume of out, 0..100. succeeded reports whether the device confirmed the
// command.
func (c *Connection) SetVolume(ctx context.Context, out director.OutputID, volume int) (bool, error) {
	cmd, err := director.VolumeCommand(out, volume)
	if err != nil {
		return false, err
	}

	succeeded, _, err := c.Exchange(ctx, cmd)
	if err != nil || !succeeded {
		return succeeded, err
	}

	c.cache.update(out, func(st *director.OutputStatus) { st.Volume = volume })

	return true, nil
}

// SystemStatusRaw queries the status report and returns its text without the command echo.
func (c *Connection) SystemStatusRaw(ctx context.Context) (string, error) {
	_, payload, err := c.Exchange(ctx, director.StatusCommand())

	return payload, err
}

// SystemStatus queries and parses the status report. The parsed outputs replace the cached state.
func (c *Connection) SystemStatus(ctx context.Context) (*director.SystemStatus, error) {
	payload, err := c.SystemStatusRaw(ctx)
	if err != nil {
		return nil, err
	}

	status, err := director.ParseStatus(payload)
	if err != nil {
		c.logger.Error("failed to parse status report", "error", err)
		return nil, err
	}

	c.cache.replace(status)

	return status, nil
}

// CachedOutput returns the last known state of out without talking to the device.
// The state is known once a status query succeeded; confirmed mutations keep it current.
func (c *Connection) CachedOutput(out director.OutputID) (director.OutputStatus, bool) {
	return c.cache.load(out)
}

// CachedOutputs returns the last known state of every output, zones first.
func (c *Connection) CachedOutputs() []director.OutputStatus {
	return c.cache.snapshot()
}
