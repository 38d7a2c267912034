package director

import (
	"fmt"
	"strconv"
	"strings"
)

// OutputID identifies an output: an analog amplifier zone (1..8) or a digital stereo output ('a' or 'b').
//
// The zero value is not a valid output.
type OutputID struct {
	zone   int
	letter byte
}

// AnalogOutput returns the amplifier zone with the given number, 1..8.
func AnalogOutput(zone int) OutputID {
	return OutputID{zone: zone}
}

// DigitalOutput returns the digital output for the given letter, 'a' or 'b' (either case).
func DigitalOutput(letter byte) OutputID {
	return OutputID{letter: lowerLetter(letter)}
}

// AllOutputs returns every output of the device: zones 1..8 followed by digital 'a' and 'b'.
func AllOutputs() []OutputID {
	ids := make([]OutputID, 0, AnalogCount+len(digitalLetters))
	for z := 1; z <= AnalogCount; z++ {
		ids = append(ids, AnalogOutput(z))
	}
	for _, l := range digitalLetters {
		ids = append(ids, DigitalOutput(l))
	}

	return ids
}

// DecodeOutputStatusToken decodes the numeric output column of a status report line.
// 1..8 map to zones, 9 to digital output 'a' and any other value to digital output 'b'.
func DecodeOutputStatusToken(token string) (OutputID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return OutputID{}, &Error{
			Kind:   MalformedTokenError,
			Detail: fmt.Sprintf("output token %q is not numeric", token),
			Err:    err,
		}
	}

	zone, letter := statusSlot(n)

	return OutputID{zone: zone, letter: letter}, nil
}

// ParseOutput parses the wire form of an output, "Z<n>" or "DXO<letter>".
func ParseOutput(s string) (OutputID, error) {
	var id OutputID
	switch {
	case strings.HasPrefix(s, "DXO") && len(s) == 4:
		id = DigitalOutput(s[3])
	case strings.HasPrefix(s, "Z"):
		zone, err := strconv.Atoi(s[1:])
		if err != nil {
			return OutputID{}, fmt.Errorf("%w: output %q", ErrInvalidArgument, s)
		}
		id = AnalogOutput(zone)
	default:
		return OutputID{}, fmt.Errorf("%w: output %q", ErrInvalidArgument, s)
	}

	if !id.Valid() {
		return OutputID{}, fmt.Errorf("%w: output %q out of range", ErrInvalidArgument, s)
	}

	return id, nil
}

// Valid reports whether id is one of the outputs returned by AllOutputs.
func (id OutputID) Valid() bool {
	if id.zone != 0 {
		return id.zone >= 1 && id.zone <= AnalogCount && id.letter == 0
	}

	return isDigitalLetter(id.letter)
}

func (id OutputID) IsAnalog() bool { return id.zone != 0 }

func (id OutputID) IsDigital() bool { return id.zone == 0 && id.letter != 0 }

// Zone returns the zone number, or 0 for a digital output.
func (id OutputID) Zone() int { return id.zone }

// Letter returns the digital output letter, or 0 for a zone.
func (id OutputID) Letter() byte { return id.letter }

// String returns the wire form used in commands and as SystemStatus key: "Z<n>" or "DXO<letter>".
func (id OutputID) String() string {
	switch {
	case id.zone != 0:
		return "Z" + strconv.Itoa(id.zone)
	case id.letter != 0:
		return "DXO" + string(id.letter)
	default:
		return ""
	}
}

// Name returns the human readable name, e.g. "Zone 3" or "Digital Out B".
func (id OutputID) Name() string {
	if id.zone != 0 {
		return "Zone " + strconv.Itoa(id.zone)
	}

	return "Digital Out " + strings.ToUpper(string(id.letter))
}

// MarshalText implements encoding.TextMarshaler using the wire form.
func (id OutputID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: invalid output", ErrInvalidArgument)
	}

	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the wire form.
func (id *OutputID) UnmarshalText(text []byte) error {
	parsed, err := ParseOutput(string(text))
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}
