package json

import "encoding/json"

// Encoder writes JSON values to an output stream
type Encoder interface {
	Encode(v interface{}) error
	SetIndent(prefix, indent string)
}

// Decoder reads JSON values from an input stream
type Decoder interface {
	Decode(v interface{}) error
	More() bool
}

// Shared types, both backends encode them identically
type (
	RawMessage  = json.RawMessage
	Marshaler   = json.Marshaler
	Unmarshaler = json.Unmarshaler
)
