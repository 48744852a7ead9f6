//go:build !sonic

package json

import (
	"encoding/json"
	"io"
)

// Implementation is the JSON backend compiled into the binary
const Implementation = "encoding/json"

// Functions of the standard library backend
var (
	Marshal       = json.Marshal
	MarshalIndent = json.MarshalIndent
	Unmarshal     = json.Unmarshal
	Valid         = json.Valid
)

// NewEncoder returns an encoder writing to w
func NewEncoder(w io.Writer) Encoder {
	return json.NewEncoder(w)
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader) Decoder {
	return json.NewDecoder(r)
}
