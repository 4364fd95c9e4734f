package model

import "encoding/json"

// Flag is a tri-state boolean: a field can be explicitly true, explicitly
// false, or not yet set. It marshals to JSON as true/false/null so the
// "not yet categorized" state survives the wire.
type Flag int

const (
	FlagUnset Flag = iota
	FlagNo
	FlagYes
)

// Bool collapses the flag to a plain boolean, treating unset as false.
func (f Flag) Bool() bool {
	return f == FlagYes
}

// FlagOf converts a plain boolean to its explicit flag value.
func FlagOf(b bool) Flag {
	if b {
		return FlagYes
	}
	return FlagNo
}

func (f Flag) MarshalJSON() ([]byte, error) {
	switch f {
	case FlagYes:
		return []byte("true"), nil
	case FlagNo:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (f *Flag) UnmarshalJSON(bs []byte) error {
	if string(bs) == "null" {
		*f = FlagUnset
		return nil
	}
	var b bool
	if err := json.Unmarshal(bs, &b); err != nil {
		return err
	}
	*f = FlagOf(b)
	return nil
}
