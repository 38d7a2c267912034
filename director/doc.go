// Package director implements the protocol engine of the AudioControl Director M6400/M6800 control port:
// identifier codecs, command framing, reply interpretation and the status report parser.
//
// The control port speaks a line-oriented text protocol. Every command is terminated by a carriage
// return and echoed back verbatim by the device, followed by the result:
//
//	Z3sourceMX2\r        route analog input 2 to zone 3
//	Z3sourceMX2\r01Z3sourceMX2\r   -> success sentinel
//	Z3sourceMX2\rxxZ3sourceMX2xx\r -> failure sentinel, BadCommandError
//
// The status query SYSTEMstat? is answered with a fixed 21 line report instead of a sentinel, see
// ParseStatus.
//
// Everything in this package is pure: no I/O, no shared state. The client package owns the connection
// and uses Command, ReplyComplete, Interpret and ParseStatus to run exchanges.
//
// Errors describing device or protocol failures are *Error values whose Kind is one of a closed set of
// variants. Match them with errors.Is against the ErrXXX sentinels or extract the kind with KindOf:
//
//	ok, err := conn.SetPower(ctx, director.AnalogOutput(1), true)
//	switch kind, _ := director.KindOf(err); kind {
//	case director.BadCommandError:
//	    // fix the command and retry
//	case director.ProtocolViolationError, director.ConnectionError:
//	    // reopen the connection
//	}
package director
