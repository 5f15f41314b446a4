package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain digits", input: "3015551234", want: "xxxxxx1234"},
		{name: "separators preserved", input: "301-555-1234", want: "xxx-xxx-1234"},
		{name: "international prefix", input: "+57 301 555 1234", want: "+xx xxx xxx 1234"},
		{name: "empty", input: "", want: ""},
		{name: "exactly four chars", input: "1234", want: "1234"},
		{name: "shorter than four", input: "911", want: "911"},
		{name: "five chars", input: "51234", want: "x1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.input))
		})
	}
}

func TestPhonePreservesLastFour(t *testing.T) {
	input := "301-555-1234"
	masked := Phone(input)
	assert.Equal(t, input[len(input)-4:], masked[len(masked)-4:])
}

func TestPhoneIdempotentOnMaskedValue(t *testing.T) {
	masked := Phone("301-555-1234")
	assert.Equal(t, masked, Phone(masked))
}

func TestPhonePtr(t *testing.T) {
	assert.Nil(t, PhonePtr(nil))

	raw := "3015551234"
	masked := PhonePtr(&raw)
	assert.Equal(t, "xxxxxx1234", *masked)
}
