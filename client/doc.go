// Package client provides a connection to the control port of an AudioControl Director M6400/M6800
// amplifier. It frames commands, reads the variable-length replies and turns them into the typed
// results of the director package.
//
// Key Features:
//   - Transports: TCP (the control port behind a telnet server) and serial adapters, or any custom
//     Dialer.
//   - Single flight: one command/reply exchange at a time per connection, concurrent callers queue.
//   - Cancellation: every operation takes a context.Context; canceling it or calling Close releases a
//     pending read.
//   - Pacing: an optional minimum interval between commands.
//   - Status cache: the last status report, kept current by confirmed mutations.
//   - Metrics: atomic counters, exposed to Prometheus with RegisterMetrics.
//
// Connection Establishment:
//   - Create a ConnectionConfig with NewConnectionConfig (TCP) or NewSerialConnectionConfig.
//   - Call Connect, or NewConnection followed by Open.
//
// Error Recovery:
//
// A reply that does not echo the command, a transport failure or an interrupted exchange leaves the
// byte stream in an unknown position. The connection then refuses further exchanges with the kind of
// the original failure until Open is called again. A BadCommandError leaves the stream in sync.
//
// Usage Example:
//
//	cfg, err := client.NewConnectionConfig("10.111.16.52", client.DefaultPort,
//	    client.WithReplyTimeout(5*time.Second),
//	)
//	// ... handle error ...
//	conn, err := client.Connect(ctx, cfg)
//	// ... handle error ...
//	defer conn.Close()
//
//	ok, err := conn.RouteInput(ctx, director.AnalogOutput(3), director.AnalogInput(2))
//	// ... handle error ...
//
//	status, err := conn.SystemStatus(ctx)
//	// ... handle error ...
//	for _, out := range status.Outputs() {
//	    fmt.Println(out.Name, out.Input.Name(), out.Volume)
//	}
package client
