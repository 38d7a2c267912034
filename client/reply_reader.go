package client

import (
	"errors"
	"io"
	"strings"
)

// replyReader accumulates a variable-length reply from a Transport.
//
// The device flushes a reply in several writes and has no length header, so the reader reads
// fixed-size chunks and asks a completion predicate after every chunk whether the accumulated text
// is a full reply.
//
// replyReader is NOT goroutine-safe; the connection serializes exchanges.
type replyReader struct {
	chunkSize int
}

// ReadReply reads from r until complete reports true for the accumulated text or the stream ends.
//
// eof is true when the stream ended (a zero-length read or io.EOF) before the reply was complete;
// the partial reply is returned without error and the interpreter is responsible for reporting the
// truncation. Any other read error is returned together with the text accumulated so far.
func (rr *replyReader) ReadReply(r io.Reader, complete func(accumulated string) bool) (reply string, eof bool, err error) {
	var acc strings.Builder
	buf := make([]byte, rr.chunkSize)

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			if complete(acc.String()) {
				return acc.String(), false, nil
			}
		}

		switch {
		case rerr == nil && n == 0:
			return acc.String(), true, nil
		case errors.Is(rerr, io.EOF):
			return acc.String(), true, nil
		case rerr != nil:
			return acc.String(), false, rerr
		}
	}
}
