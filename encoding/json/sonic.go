//go:build sonic

package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// Implementation is the JSON backend compiled into the binary
const Implementation = "bytedance/sonic"

var std = sonic.ConfigStd

// Functions of the sonic backend, configured to match the standard library
var (
	Marshal       = std.Marshal
	MarshalIndent = std.MarshalIndent
	Unmarshal     = std.Unmarshal
	Valid         = std.Valid
)

// NewEncoder returns an encoder writing to w
func NewEncoder(w io.Writer) Encoder {
	return std.NewEncoder(w)
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader) Decoder {
	return std.NewDecoder(r)
}
