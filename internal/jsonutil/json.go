// internal/jsonutil/json.go
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// EncodePretty writes v as indented JSON to w.
func EncodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errTrailing = errors.New("jsonutil: data after the JSON value")

// DecodeOne reads exactly one JSON value from data into v. Unknown fields
// are ignored so older readers accept newer documents.
func DecodeOne(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailing
	}
	return nil
}
