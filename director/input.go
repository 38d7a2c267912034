package director

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// AnalogCount is the number of analog inputs and analog zones on a Director.
	AnalogCount = 8

	inputTokenSep = " & "
)

// digitalLetters lists the digital input/output letters in device order.
var digitalLetters = [...]byte{'a', 'b'}

// InputID identifies an input: an analog stereo pair (channel 1..8) or a digital stereo input ('a' or 'b').
//
// The zero value is not a valid input.
type InputID struct {
	channel int
	letter  byte
}

// AnalogInput returns the analog input for the given channel, 1..8.
func AnalogInput(channel int) InputID {
	return InputID{channel: channel}
}

// DigitalInput returns the digital input for the given letter, 'a' or 'b' (either case).
func DigitalInput(letter byte) InputID {
	return InputID{letter: lowerLetter(letter)}
}

// AllInputs returns every input of the device: analog 1..8 followed by digital 'a' and 'b'.
func AllInputs() []InputID {
	ids := make([]InputID, 0, AnalogCount+len(digitalLetters))
	for ch := 1; ch <= AnalogCount; ch++ {
		ids = append(ids, AnalogInput(ch))
	}
	for _, l := range digitalLetters {
		ids = append(ids, DigitalInput(l))
	}

	return ids
}

// DecodeInputStatusToken decodes the input column of a status report line, such as "MX3 & 3".
//
// The part after the first " & " is the numeric slot: 1..8 map to the analog input of that channel,
// 9 maps to digital input 'a' and any other value to digital input 'b'.
func DecodeInputStatusToken(token string) (InputID, error) {
	_, num, found := strings.Cut(token, inputTokenSep)
	if !found {
		return InputID{}, &Error{
			Kind:   MalformedTokenError,
			Detail: fmt.Sprintf("input token %q has no %q separator", token, inputTokenSep),
		}
	}

	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return InputID{}, &Error{
			Kind:   MalformedTokenError,
			Detail: fmt.Sprintf("input token %q has a non-numeric slot", token),
			Err:    err,
		}
	}

	channel, letter := statusSlot(n)

	return InputID{channel: channel, letter: letter}, nil
}

// ParseInput parses the wire form of an input, "MX<n>" or "DX<letter>".
func ParseInput(s string) (InputID, error) {
	var id InputID
	switch {
	case strings.HasPrefix(s, "MX"):
		ch, err := strconv.Atoi(s[2:])
		if err != nil {
			return InputID{}, fmt.Errorf("%w: input %q", ErrInvalidArgument, s)
		}
		id = AnalogInput(ch)
	case strings.HasPrefix(s, "DX") && len(s) == 3:
		id = DigitalInput(s[2])
	default:
		return InputID{}, fmt.Errorf("%w: input %q", ErrInvalidArgument, s)
	}

	if !id.Valid() {
		return InputID{}, fmt.Errorf("%w: input %q out of range", ErrInvalidArgument, s)
	}

	return id, nil
}

// Valid reports whether id is one of the inputs returned by AllInputs.
func (id InputID) Valid() bool {
	if id.channel != 0 {
		return id.channel >= 1 && id.channel <= AnalogCount && id.letter == 0
	}

	return isDigitalLetter(id.letter)
}

// IsAnalog reports whether id is an analog input.
func (id InputID) IsAnalog() bool { return id.channel != 0 }

// IsDigital reports whether id is a digital input.
func (id InputID) IsDigital() bool { return id.channel == 0 && id.letter != 0 }

// Channel returns the analog channel number, or 0 for a digital input.
func (id InputID) Channel() int { return id.channel }

// Letter returns the digital input letter, or 0 for an analog input.
func (id InputID) Letter() byte { return id.letter }

// String returns the wire form used in commands: "MX<n>" or "DX<letter>".
func (id InputID) String() string {
	switch {
	case id.channel != 0:
		return "MX" + strconv.Itoa(id.channel)
	case id.letter != 0:
		return "DX" + string(id.letter)
	default:
		return ""
	}
}

// Name returns the human readable name, e.g. "Channel 5-6" or "Digital In A".
func (id InputID) Name() string {
	if id.channel != 0 {
		second := id.channel * 2
		return fmt.Sprintf("Channel %d-%d", second-1, second)
	}

	return "Digital In " + strings.ToUpper(string(id.letter))
}

// MarshalText implements encoding.TextMarshaler using the wire form.
func (id InputID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: invalid input", ErrInvalidArgument)
	}

	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the wire form.
func (id *InputID) UnmarshalText(text []byte) error {
	parsed, err := ParseInput(string(text))
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}

// statusSlot maps the numeric identifiers of a status report onto the device universe:
// 1..8 are analog, 9 is digital 'a' and every other value collapses to digital 'b'.
func statusSlot(n int) (channel int, letter byte) {
	if n >= 1 && n <= AnalogCount {
		return n, 0
	}
	if n == AnalogCount+1 {
		return 0, 'a'
	}

	return 0, 'b'
}

func lowerLetter(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}

	return b
}

func isDigitalLetter(b byte) bool {
	for _, l := range digitalLetters {
		if b == l {
			return true
		}
	}

	return false
}
