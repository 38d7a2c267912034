// Package fakedevice simulates the control port of a Director amplifier for tests.
//
// A Device keeps per-output state, answers route, power, volume and status commands the way the
// amplifier does, and writes each reply in several small chunks so that clients have to accumulate
// partial reads.
package fakedevice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/arloliu/go-director/director"
)

// DefaultChunkSize is the size of each write of a reply.
const DefaultChunkSize = 32

// Responder overrides the reply to a command. When handled is true, reply is written verbatim,
// including the command echo; an empty reply makes the device stay silent.
// It runs with the device locked and must not call Device methods.
type Responder func(command string) (reply string, handled bool)

type outputState struct {
	name        string
	input       director.InputID
	powered     bool
	volume      int
	signalSense bool
}

// Device is a simulated amplifier. It is safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	name      string
	outputs   map[director.OutputID]*outputState
	responder Responder
	chunkSize int
	commands  []string
}

// New creates a Device named name with every output powered on, at volume 100 and routed to the
// input of the same index.
func New(name string) *Device {
	d := &Device{
		name:      name,
		outputs:   make(map[director.OutputID]*outputState, director.OutputCount),
		chunkSize: DefaultChunkSize,
	}

	inputs := director.AllInputs()
	for i, out := range director.AllOutputs() {
		d.outputs[out] = &outputState{
			name:    out.Name(),
			input:   inputs[i],
			powered: true,
			volume:  director.MaxVolume,
		}
	}

	return d
}

// SetResponder installs fn to override replies. A nil fn restores the default behavior.
func (d *Device) SetResponder(fn Responder) {
	d.mu.Lock()
	d.responder = fn
	d.mu.Unlock()
}

// SetChunkSize sets the size of each reply write.
func (d *Device) SetChunkSize(n int) {
	if n < 1 {
		n = 1
	}
	d.mu.Lock()
	d.chunkSize = n
	d.mu.Unlock()
}

// SetSignalSense sets the signal sense flag reported for out.
func (d *Device) SetSignalSense(out director.OutputID, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if st, ok := d.outputs[out]; ok {
		st.signalSense = on
	}
}

// Commands returns the commands received so far, without terminators.
func (d *Device) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.commands...)
}

// Reply records command, applies it to the device state and returns the full reply.
func (d *Device) Reply(command string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commands = append(d.commands, command)

	if d.responder != nil {
		if reply, handled := d.responder(command); handled {
			return reply
		}
	}

	if command == director.StatusQuery {
		return command + "\r" + d.report()
	}

	if !d.apply(command) {
		return command + "\r" + director.FailureSentinel(command)
	}

	return command + "\r" + director.SuccessSentinel(command)
}

// apply executes a mutation command and reports whether the device accepted it.
func (d *Device) apply(command string) bool {
	if out, in, ok := strings.Cut(command, "source"); ok {
		st, okOut := d.lookup(out)
		input, err := director.ParseInput(in)
		if !okOut || err != nil {
			return false
		}
		st.input = input

		return true
	}

	if out, vol, ok := strings.Cut(command, "setvol"); ok {
		st, okOut := d.lookup(out)
		v, err := strconv.Atoi(vol)
		if !okOut || err != nil || v < director.MinVolume || v > director.MaxVolume {
			return false
		}
		st.volume = v

		return true
	}

	if out, ok := strings.CutSuffix(command, "off"); ok {
		st, okOut := d.lookup(out)
		if !okOut {
			return false
		}
		st.powered = false

		return true
	}

	if out, ok := strings.CutSuffix(command, "on"); ok {
		st, okOut := d.lookup(out)
		if !okOut {
			return false
		}
		st.powered = true

		return true
	}

	return false
}

func (d *Device) lookup(token string) (*outputState, bool) {
	out, err := director.ParseOutput(token)
	if err != nil {
		return nil, false
	}
	st, ok := d.outputs[out]

	return st, ok
}

// Report returns the current status report text, as sent after the echo of the status query.
func (d *Device) Report() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.report()
}

func (d *Device) report() string {
	lines := []string{
		"AMPLIFIER NAME: " + d.name,
		"GLOBAL TEMP: 111 F & Normal",
		"GLOBAL VOLTAGE: 126 & Normal",
		"ZONE OUTPUT PROTECT:",
		"GLOBAL PROTECTION: Normal",
		"THERMAL PROTECTION: Normal",
		"IP ADDRESS: 10.111.16.52",
		"DATE 10/10/2022",
		"TIME '17:30:08",
		"",
		"ZONES, #, POWER STATE, INPUT, VOLUME, BASS, TREBLE, EQ, GROUP, TEMP, SIG. SENSE",
	}

	for _, out := range director.AllOutputs() {
		st := d.outputs[out]
		lines = append(lines, fmt.Sprintf("%s, %d, %s, %s & %d, %d, 0, 0, Acoustic and 0, 0, 111 F/Normal, %s",
			st.name, statusNumber(out.Zone(), out.Letter()), onOff(st.powered),
			st.input.String(), statusNumber(st.input.Channel(), st.input.Letter()),
			st.volume, onOff(st.signalSense)))
	}

	return strings.Join(lines, "\r\n") + "\r\n"
}

// statusNumber is the index the device reports for an analog index or digital letter.
func statusNumber(index int, letter byte) int {
	switch {
	case index != 0:
		return index
	case letter == 'a':
		return director.AnalogCount + 1
	default:
		return director.AnalogCount + 2
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}

	return "off"
}

// Serve answers commands read from conn until the stream ends. It closes conn before returning.
func (d *Device) Serve(conn net.Conn) error {
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\r')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}

			return err
		}

		command := strings.TrimLeft(strings.TrimSuffix(line, "\r"), "\n")
		if err := d.write(conn, d.Reply(command)); err != nil {
			return err
		}
	}
}

func (d *Device) write(w io.Writer, reply string) error {
	d.mu.Lock()
	size := d.chunkSize
	d.mu.Unlock()

	data := []byte(reply)
	for len(data) > 0 {
		n := min(size, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}

	return nil
}

// DialPipe returns the client end of an in-memory stream served by the device.
func (d *Device) DialPipe(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, server := net.Pipe()
	go func() { _ = d.Serve(server) }()

	return client, nil
}

// ListenAndServe accepts connections on ln until ctx is done or ln fails. Accepted connections are
// served until their peer closes them.
func (d *Device) ListenAndServe(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		go func() { _ = d.Serve(conn) }()
	}
}
