package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseBoolUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`"true"`, true},
		{`"false"`, false},
		{`""`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var b LooseBool
			require.NoError(t, json.Unmarshal([]byte(tt.input), &b))
			assert.Equal(t, tt.want, b.Bool())
		})
	}
}

func TestLooseBoolUnmarshalRejectsJunk(t *testing.T) {
	var b LooseBool
	assert.Error(t, json.Unmarshal([]byte(`"yes please"`), &b))
}

func TestLooseBoolMarshalIsStrict(t *testing.T) {
	out, err := json.Marshal(struct {
		Completed LooseBool `json:"completed"`
	}{Completed: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"completed":true}`, string(out))
}
