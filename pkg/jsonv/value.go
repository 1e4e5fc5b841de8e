// Package jsonv models the loosely shaped JSON documents printed by the
// target program. A response is an object, an array, a scalar, or absent
// (nothing parseable, or JSON null).
package jsonv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Kind classifies a Value.
type Kind int

const (
	Absent Kind = iota
	Object
	Array
	Scalar
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	case Scalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Value is a decoded JSON document. The zero Value is Absent.
type Value struct {
	kind Kind
	raw  any
}

// Parse decodes exactly one JSON document from data. Numbers keep their
// textual form (json.Number). Trailing non-whitespace is an error.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, errors.New("empty output")
		}
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("extra data after JSON document at offset %d", dec.InputOffset())
	}
	return From(v), nil
}

// From wraps an already decoded value.
func From(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case map[string]any:
		return Value{kind: Object, raw: t}
	case []any:
		return Value{kind: Array, raw: t}
	default:
		return Value{kind: Scalar, raw: t}
	}
}

// Kind returns the classification of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v carries no document.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// Raw returns the decoded Go value (nil when absent).
func (v Value) Raw() any { return v.raw }

// Object returns the members of an object value.
func (v Value) Object() (map[string]any, bool) {
	m, ok := v.raw.(map[string]any)
	return m, ok && v.kind == Object
}

// Array returns the elements of an array value.
func (v Value) Array() ([]any, bool) {
	a, ok := v.raw.([]any)
	return a, ok && v.kind == Array
}

// Items returns the elements of an array value wrapped as Values, or nil.
func (v Value) Items() []Value {
	a, ok := v.Array()
	if !ok {
		return nil
	}
	out := make([]Value, len(a))
	for i, e := range a {
		out[i] = From(e)
	}
	return out
}

// Field returns member key of an object value; Absent otherwise.
func (v Value) Field(key string) Value {
	m, ok := v.Object()
	if !ok {
		return Value{}
	}
	return From(m[key])
}

// Str returns member key of an object value rendered as text. Strings and
// numbers qualify; everything else does not.
func (v Value) Str(key string) (string, bool) {
	return v.Field(key).Text()
}

// Text renders a string or number scalar.
func (v Value) Text() (string, bool) {
	switch t := v.raw.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// Keys returns the sorted member names of an object value.
func (v Value) Keys() []string {
	m, ok := v.Object()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindObject scans an array value for the first object whose member field
// equals want.
func (v Value) FindObject(field, want string) (Value, bool) {
	for _, item := range v.Items() {
		if item.Kind() != Object {
			continue
		}
		if got, ok := item.Str(field); ok && got == want {
			return item, true
		}
	}
	return Value{}, false
}

// Pretty renders v indented by two spaces with object keys sorted.
// An absent value renders as null.
func (v Value) Pretty() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v.raw); err != nil {
		return "null"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// MarshalJSON encodes the underlying document.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}
