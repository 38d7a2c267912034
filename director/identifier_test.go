package director

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOutputStatusToken(t *testing.T) {
	for n := 1; n <= AnalogCount; n++ {
		out, err := DecodeOutputStatusToken(strconv.Itoa(n))
		require.NoError(t, err)
		assert.Equal(t, AnalogOutput(n), out)
		assert.Equal(t, "Z"+strconv.Itoa(n), out.String())
	}

	tests := []struct {
		token    string
		expected OutputID
	}{
		{"9", DigitalOutput('a')},
		{"10", DigitalOutput('b')},
		{" 10 ", DigitalOutput('b')},
		{"11", DigitalOutput('b')},
		{"0", DigitalOutput('b')},
		{"-1", DigitalOutput('b')},
		{"99", DigitalOutput('b')},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			out, err := DecodeOutputStatusToken(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestDecodeOutputStatusToken_Malformed(t *testing.T) {
	for _, token := range []string{"", "Z1", "one", "1.5"} {
		_, err := DecodeOutputStatusToken(token)
		require.Error(t, err, token)
		require.ErrorIs(t, err, ErrMalformedToken)
	}
}

func TestDecodeInputStatusToken(t *testing.T) {
	tests := []struct {
		token    string
		expected InputID
	}{
		{"Foo & 3", AnalogInput(3)},
		{"MX1 & 1", AnalogInput(1)},
		{"MX8 & 8", AnalogInput(8)},
		{"Foo & 9", DigitalInput('a')},
		{"MX10 & 10", DigitalInput('b')},
		{"DXb & 42", DigitalInput('b')},
		{"MX2 &  2 ", AnalogInput(2)},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			in, err := DecodeInputStatusToken(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, in)
		})
	}
}

func TestDecodeInputStatusToken_Malformed(t *testing.T) {
	// only the first separator splits, so "B & 2" is not a number
	for _, token := range []string{"", "MX3", "MX3&3", "MX3 & three", "A & B & 2"} {
		_, err := DecodeInputStatusToken(token)
		require.Error(t, err, token)

		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, MalformedTokenError, kind)
	}
}

func TestInputID_Forms(t *testing.T) {
	tests := []struct {
		id   InputID
		wire string
		name string
	}{
		{AnalogInput(1), "MX1", "Channel 1-2"},
		{AnalogInput(3), "MX3", "Channel 5-6"},
		{AnalogInput(8), "MX8", "Channel 15-16"},
		{DigitalInput('a'), "DXa", "Digital In A"},
		{DigitalInput('B'), "DXb", "Digital In B"},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			assert.True(t, tt.id.Valid())
			assert.Equal(t, tt.wire, tt.id.String())
			assert.Equal(t, tt.name, tt.id.Name())

			parsed, err := ParseInput(tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.id, parsed)
		})
	}

	assert.True(t, AnalogInput(2).IsAnalog())
	assert.False(t, AnalogInput(2).IsDigital())
	assert.True(t, DigitalInput('a').IsDigital())
	assert.Equal(t, byte('a'), DigitalInput('A').Letter())
	assert.Equal(t, 2, AnalogInput(2).Channel())
}

func TestOutputID_Forms(t *testing.T) {
	tests := []struct {
		id   OutputID
		wire string
		name string
	}{
		{AnalogOutput(1), "Z1", "Zone 1"},
		{AnalogOutput(8), "Z8", "Zone 8"},
		{DigitalOutput('a'), "DXOa", "Digital Out A"},
		{DigitalOutput('B'), "DXOb", "Digital Out B"},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			assert.True(t, tt.id.Valid())
			assert.Equal(t, tt.wire, tt.id.String())
			assert.Equal(t, tt.name, tt.id.Name())

			parsed, err := ParseOutput(tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.id, parsed)
		})
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	for _, s := range []string{"", "MX", "MX0", "MX9", "DXc", "DX", "Z1", "DXOa"} {
		_, err := ParseInput(s)
		require.ErrorIs(t, err, ErrInvalidArgument, s)
	}

	for _, s := range []string{"", "Z", "Z0", "Z9", "DXOc", "DXO", "MX1", "DXa"} {
		_, err := ParseOutput(s)
		require.ErrorIs(t, err, ErrInvalidArgument, s)
	}
}

func TestIdentifier_Validity(t *testing.T) {
	assert.False(t, InputID{}.Valid())
	assert.False(t, AnalogInput(0).Valid())
	assert.False(t, AnalogInput(9).Valid())
	assert.False(t, DigitalInput('c').Valid())

	assert.False(t, OutputID{}.Valid())
	assert.False(t, AnalogOutput(9).Valid())
	assert.False(t, DigitalOutput('z').Valid())

	assert.Empty(t, InputID{}.String())
	assert.Empty(t, OutputID{}.String())
}

func TestAllIdentifiers(t *testing.T) {
	inputs := AllInputs()
	require.Len(t, inputs, 10)
	assert.Equal(t, AnalogInput(1), inputs[0])
	assert.Equal(t, AnalogInput(8), inputs[7])
	assert.Equal(t, DigitalInput('a'), inputs[8])
	assert.Equal(t, DigitalInput('b'), inputs[9])

	outputs := AllOutputs()
	require.Len(t, outputs, OutputCount)

	wire := make([]string, 0, len(outputs))
	for _, out := range outputs {
		wire = append(wire, out.String())
	}
	assert.Equal(t, []string{"Z1", "Z2", "Z3", "Z4", "Z5", "Z6", "Z7", "Z8", "DXOa", "DXOb"}, wire)
}

func TestIdentifier_TextMarshaling(t *testing.T) {
	type route struct {
		Output OutputID `json:"output"`
		Input  InputID  `json:"input"`
	}

	data, err := json.Marshal(route{Output: DigitalOutput('a'), Input: AnalogInput(4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"DXOa","input":"MX4"}`, string(data))

	var decoded route
	require.NoError(t, json.Unmarshal([]byte(`{"output":"Z7","input":"DXb"}`), &decoded))
	assert.Equal(t, AnalogOutput(7), decoded.Output)
	assert.Equal(t, DigitalInput('b'), decoded.Input)

	require.Error(t, json.Unmarshal([]byte(`{"output":"Z12","input":"DXb"}`), &decoded))

	_, err = json.Marshal(route{})
	require.Error(t, err)
}
