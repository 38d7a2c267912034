package client

import "errors"

var (
	// ErrConnConfigNil is returned by NewConnection when the configuration is nil.
	ErrConnConfigNil = errors.New("client: connection config is nil")
	// ErrConnClosed indicates an exchange on a connection that is not open.
	// Exchanges wrap it into a director ConnectionError.
	ErrConnClosed = errors.New("client: connection closed")
	// ErrConnBusy is returned by Open while another Open or a Close is in progress.
	ErrConnBusy = errors.New("client: connection is opening or closing")
	// ErrReplyTruncated indicates that the device closed the stream before the reply completed.
	ErrReplyTruncated = errors.New("client: stream closed before the reply completed")
)
