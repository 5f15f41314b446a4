package dto

import (
	"bytes"
	"fmt"
	"strconv"
)

// LooseBool normalizes the loose boolean representations legacy clients
// send: true/false, 0/1, "0"/"1", "true"/"false". The persisted value is
// always a strict boolean; normalization happens here, once, at the
// transport boundary.
type LooseBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *LooseBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}

	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	switch s {
	case "true", "1":
		*b = true
		return nil
	case "false", "0", "":
		*b = false
		return nil
	}

	parsed, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value %q", string(data))
	}
	*b = LooseBool(parsed)
	return nil
}

// MarshalJSON implements json.Marshaler; output is always strict.
func (b LooseBool) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(b))), nil
}

// Bool returns the normalized value.
func (b LooseBool) Bool() bool {
	return bool(b)
}
