// Package json wraps the sonic codec behind the familiar Marshal/Unmarshal
// surface so the serializer can be swapped in one place.
package json

import (
	stdjson "encoding/json"

	"github.com/bytedance/sonic"
)

// RawMessage is re-exported for convenience so callers need only this package.
// sonic honors the encoding/json marshaler contract, so raw payloads embed
// verbatim instead of being base64-encoded.
type RawMessage = stdjson.RawMessage

func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}

func MarshalString(v interface{}) (string, error) {
	return sonic.MarshalString(v)
}

func UnmarshalString(data string, v interface{}) error {
	return sonic.UnmarshalString(data, v)
}
