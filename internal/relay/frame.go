package relay

import (
	"encoding/json"
	"fmt"
)

// TypeRegister is the discriminant value that marks a registration frame.
const TypeRegister = "register"

// Frame is the parsed view of one inbound message. Raw keeps the
// original bytes: relayed frames are forwarded verbatim, never
// re-serialized. Presence flags are tracked separately from values so
// that `"to": ""` (present but empty) is distinguishable from an
// absent field.
type Frame struct {
	Type string
	ID   string
	To   string

	HasID bool
	HasTo bool

	Raw []byte
}

// IsRegister reports whether the frame is a registration.
func (f *Frame) IsRegister() bool {
	return f.Type == TypeRegister
}

// ParseFrame decodes a raw frame. Any failure is a protocol violation:
// frames must be JSON objects, must carry a string "type" field, and
// the recognized fields must be strings when present. Unrecognized
// fields are opaque payload and are not inspected.
func ParseFrame(raw []byte) (*Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	f := &Frame{Raw: raw}

	typeField, ok := fields["type"]
	if !ok {
		return nil, ErrMissingType
	}
	if err := json.Unmarshal(typeField, &f.Type); err != nil {
		return nil, fmt.Errorf("%w: type field is not a string", ErrMalformedFrame)
	}

	if idField, ok := fields["id"]; ok {
		if err := json.Unmarshal(idField, &f.ID); err != nil {
			return nil, fmt.Errorf("%w: id field is not a string", ErrMalformedFrame)
		}
		f.HasID = true
	}

	if toField, ok := fields["to"]; ok {
		if err := json.Unmarshal(toField, &f.To); err != nil {
			return nil, fmt.Errorf("%w: to field is not a string", ErrMalformedFrame)
		}
		f.HasTo = true
	}

	return f, nil
}
