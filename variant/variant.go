// Package variant is the optional generic flow.Package implementation
// described in spec §4.2: a convenience façade, not part of the core
// engine, for callers who don't already have their own payload type.
//
// It mirrors the reference implementation's package/package.rs variant:
// empty, number, bool, string, bytes, array, and object, with a codec to
// and from both JSON and YAML (the teacher repo depends directly on
// gopkg.in/yaml.v3 for its own config format; reused here for the same
// reason — workflow definitions and node configs round-trip through YAML
// as often as JSON in practice).
package variant

import (
	"encoding/json"
	"fmt"

	"github.com/rakunlabs/flow"
	"gopkg.in/yaml.v3"
)

// Kind identifies which alternative a Value currently holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindBool
	KindString
	KindBytes
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a clonable, opaque-to-the-engine payload carrying one of a small
// set of plain data shapes. It implements flow.Package.
type Value struct {
	kind   Kind
	number float64
	flag   bool
	str    string
	bytes  []byte
	array  []Value
	object map[string]Value
}

// Empty returns the empty variant.
func Empty() Value { return Value{kind: KindEmpty} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bytes wraps a byte slice. The slice is copied so the Value owns it.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytes: cp}
}

// Array wraps an ordered list of Values.
func Array(items ...Value) Value { return Value{kind: KindArray, array: items} }

// Object wraps a string-keyed map of Values.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, object: fields} }

// Kind reports which alternative v currently holds.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric value and whether v holds a number.
func (v Value) Number() (float64, bool) { return v.number, v.kind == KindNumber }

// Bool returns the boolean value and whether v holds a bool.
func (v Value) Bool() (bool, bool) { return v.flag, v.kind == KindBool }

// String returns the string value and whether v holds a string.
func (v Value) String() (string, bool) { return v.str, v.kind == KindString }

// Bytes returns the byte slice and whether v holds bytes.
func (v Value) Bytes() ([]byte, bool) { return v.bytes, v.kind == KindBytes }

// Array returns the element list and whether v holds an array.
func (v Value) Array() ([]Value, bool) { return v.array, v.kind == KindArray }

// Object returns the field map and whether v holds an object.
func (v Value) Object() (map[string]Value, bool) { return v.object, v.kind == KindObject }

// Clone produces an independent copy, satisfying flow.Package. Arrays and
// objects are deep-copied so that clones never alias the original's
// underlying slice or map.
func (v Value) Clone() flow.Package {
	switch v.kind {
	case KindBytes:
		return Bytes(v.bytes)
	case KindArray:
		items := make([]Value, len(v.array))
		for i, item := range v.array {
			items[i] = item.Clone().(Value)
		}
		return Value{kind: KindArray, array: items}
	case KindObject:
		fields := make(map[string]Value, len(v.object))
		for k, item := range v.object {
			fields[k] = item.Clone().(Value)
		}
		return Value{kind: KindObject, object: fields}
	default:
		return v
	}
}

var _ flow.Package = Value{}
