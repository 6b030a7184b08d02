// Package core defines the decoded record model.
package core

import (
	"fmt"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	KindBool
	KindBytes
	KindRecord
)

// String names the kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindRecord:
		return "record"
	default:
		return "invalid"
	}
}

// Value is a tagged variant holding one decoded field.
// The zero Value is KindInvalid and never stored in a Record.
type Value struct {
	kind Kind
	num  int64
	str  string
	flag bool
	raw  []byte
	rec  Record
}

// IntValue wraps an integer field.
func IntValue(v int64) Value { return Value{kind: KindInt, num: v} }

// StringValue wraps a text field.
func StringValue(v string) Value { return Value{kind: KindString, str: v} }

// BoolValue wraps a flag field.
func BoolValue(v bool) Value { return Value{kind: KindBool, flag: v} }

// BytesValue wraps a byte view. The slice is not copied and may alias the
// captured frame.
func BytesValue(v []byte) Value { return Value{kind: KindBytes, raw: v} }

// RecordValue wraps a nested record.
func RecordValue(v Record) Value { return Value{kind: KindRecord, rec: v} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds any variant. The zero Value is invalid.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Int returns the integer held by v and whether v is KindInt.
func (v Value) Int() (int64, bool) { return v.num, v.kind == KindInt }

// Str returns the string held by v and whether v is KindString.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Bool returns the flag held by v and whether v is KindBool.
func (v Value) Bool() (bool, bool) { return v.flag, v.kind == KindBool }

// Bytes returns the byte view held by v and whether v is KindBytes.
func (v Value) Bytes() ([]byte, bool) { return v.raw, v.kind == KindBytes }

// Record returns the nested record held by v and whether v is KindRecord.
func (v Value) Record() (Record, bool) { return v.rec, v.kind == KindRecord }

// Interface unwraps v into a plain Go value. Nested records become maps.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.flag
	case KindBytes:
		return v.raw
	case KindRecord:
		return v.rec.Map()
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.num)
	case KindString:
		return v.str
	case KindBool:
		return fmt.Sprintf("%t", v.flag)
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.raw))
	case KindRecord:
		return fmt.Sprintf("{%d fields}", len(v.rec))
	default:
		return "<invalid>"
	}
}

// Record maps stable field names to decoded values. A key is present only
// when its layer was fully readable.
type Record map[string]Value

// Set stores v under key. Invalid values are ignored.
func (r Record) Set(key string, v Value) {
	if !v.IsValid() {
		return
	}
	r[key] = v
}

// Get returns the value under key.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Int is a shorthand for Get(key) followed by Value.Int.
func (r Record) Int(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	return v.Int()
}

// Str is a shorthand for Get(key) followed by Value.Str.
func (r Record) Str(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	return v.Str()
}

// Bool is a shorthand for Get(key) followed by Value.Bool.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok {
		return false, false
	}
	return v.Bool()
}

// Sub returns the nested record under key.
func (r Record) Sub(key string) (Record, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	return v.Record()
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map converts r into plain Go values for serializers.
func (r Record) Map() map[string]any {
	if r == nil {
		return nil
	}
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = v.Interface()
	}
	return m
}
