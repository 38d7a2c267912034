package director

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	statusLineSep    = "\r\n"
	statusFieldSep   = ", "
	statusNamePrefix = "AMPLIFIER NAME: "

	// statusFirstOutputLine is the index of the first output record; lines 1..10 hold global
	// temperature, voltage, protection, network and clock information and the column header.
	statusFirstOutputLine = 11
	statusRecordFields    = 11

	// OutputCount is the number of output records in a status report.
	OutputCount = AnalogCount + 2
)

// Output record field positions. Fields 5..9 (bass, treble, EQ, group, temperature) are not modeled.
const (
	fieldName = iota
	fieldOutput
	fieldPower
	fieldInput
	fieldVolume
	fieldSignalSense = 10
)

// OutputStatus is the state of one zone or digital output as reported by the device.
type OutputStatus struct {
	Output             OutputID
	Name               string
	Input              InputID
	Powered            bool
	Volume             int
	SignalSensePowered bool
}

// SystemStatus is the parsed status report: the device name and one OutputStatus per output,
// keyed by the output wire token and kept in report order.
type SystemStatus struct {
	deviceName string
	keys       []string
	outputs    map[string]OutputStatus
}

// DeviceName returns the configured amplifier name.
func (s *SystemStatus) DeviceName() string { return s.deviceName }

// Len returns the number of outputs in the report.
func (s *SystemStatus) Len() int { return len(s.keys) }

// Keys returns the output wire tokens in report order.
func (s *SystemStatus) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)

	return keys
}

// Output returns the status stored under the output wire token key, such as "Z3" or "DXOa".
func (s *SystemStatus) Output(key string) (OutputStatus, bool) {
	st, ok := s.outputs[key]
	return st, ok
}

// OutputByID returns the status of output id.
func (s *SystemStatus) OutputByID(id OutputID) (OutputStatus, bool) {
	return s.Output(id.String())
}

// Outputs returns all output statuses in report order.
func (s *SystemStatus) Outputs() []OutputStatus {
	list := make([]OutputStatus, 0, len(s.keys))
	for _, k := range s.keys {
		list = append(list, s.outputs[k])
	}

	return list
}

// ParseStatus parses the payload of a SYSTEMstat? reply, the lines following the command echo.
//
// Lines are separated by CRLF. Line 0 carries "AMPLIFIER NAME: <name>" and lines 11 through 20 carry
// one comma-separated record per output in device order.
func ParseStatus(payload string) (*SystemStatus, error) {
	lines := strings.Split(payload, statusLineSep)
	if len(lines) < statusFirstOutputLine+OutputCount {
		return nil, reportError(fmt.Sprintf("expected at least %d lines, got %d",
			statusFirstOutputLine+OutputCount, len(lines)), nil)
	}

	_, name, found := strings.Cut(lines[0], statusNamePrefix)
	if !found {
		return nil, reportError(fmt.Sprintf("line 0 %q has no %q prefix", lines[0], statusNamePrefix), nil)
	}

	status := &SystemStatus{
		deviceName: name,
		keys:       make([]string, 0, OutputCount),
		outputs:    make(map[string]OutputStatus, OutputCount),
	}

	for i := statusFirstOutputLine; i < statusFirstOutputLine+OutputCount; i++ {
		out, err := parseOutputRecord(lines[i])
		if err != nil {
			return nil, reportError(fmt.Sprintf("line %d", i), err)
		}

		key := out.Output.String()
		if _, dup := status.outputs[key]; dup {
			return nil, reportError(fmt.Sprintf("line %d repeats output %s", i, key), nil)
		}

		status.keys = append(status.keys, key)
		status.outputs[key] = out
	}

	return status, nil
}

func parseOutputRecord(line string) (OutputStatus, error) {
	fields := strings.Split(line, statusFieldSep)
	if len(fields) < statusRecordFields {
		return OutputStatus{}, fmt.Errorf("expected %d fields, got %d", statusRecordFields, len(fields))
	}

	output, err := DecodeOutputStatusToken(fields[fieldOutput])
	if err != nil {
		return OutputStatus{}, err
	}

	input, err := DecodeInputStatusToken(fields[fieldInput])
	if err != nil {
		return OutputStatus{}, err
	}

	volume, err := strconv.Atoi(strings.TrimSpace(fields[fieldVolume]))
	if err != nil {
		return OutputStatus{}, fmt.Errorf("volume %q: %w", fields[fieldVolume], err)
	}

	return OutputStatus{
		Output:             output,
		Name:               fields[fieldName],
		Input:              input,
		Powered:            isOn(fields[fieldPower]),
		Volume:             volume,
		SignalSensePowered: isOn(fields[fieldSignalSense]),
	}, nil
}

func isOn(field string) bool {
	return strings.TrimSpace(field) == "on"
}

func reportError(detail string, cause error) *Error {
	return &Error{Kind: MalformedReportError, Command: StatusQuery, Detail: detail, Err: cause}
}
