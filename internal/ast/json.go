package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalJSON encodes the map as a compact JSON object with members in
// insertion order, e.g. {"name":"Ant","legs":6}.
//
// Differences from json.Marshal on a Go map:
//  1. Keys keep insertion order (not sorted)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Keys are NFC normalized; string values keep their bytes verbatim
//  4. Numbers are emitted unquoted from their source text
//
// A nil map encodes as {}.
func (m *PropertyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	i := 0
	for k, v := range m.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++

		keyBytes, err := MarshalString(norm.NFC.String(k))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue encodes a single property value.
func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case StringLiteral:
		return MarshalString(string(val))
	case NumberLiteral:
		return []byte(val.Canonical()), nil
	default:
		return nil, fmt.Errorf("unsupported property value type: %T", v)
	}
}

// MarshalString produces a JSON string holding exactly the bytes of s.
// Only control characters, backslash and double quote are escaped.
// Invalid UTF-8 is an error rather than being replaced with U+FFFD.
func MarshalString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("string %q is not valid UTF-8", s)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
