// Copyright 2022 The OpenZipkin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zipkintracer

import (
	"fmt"
	"strconv"
)

// AnnotationType tags the payload of a BinaryAnnotation. The numeric values
// are the zipkinCore.thrift AnnotationType codes.
type AnnotationType int32

// Supported binary annotation types.
const (
	BOOL AnnotationType = iota
	BYTES
	I16
	I32
	I64
	DOUBLE
	STRING
)

func (t AnnotationType) String() string {
	switch t {
	case BOOL:
		return "BOOL"
	case BYTES:
		return "BYTES"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	}
	return "AnnotationType(" + strconv.Itoa(int(t)) + ")"
}

// Value is the typed payload of a BinaryAnnotation. Build one with ValueOf or
// the typed constructors; the zero Value is BOOL false.
type Value struct {
	typ AnnotationType
	num int64
	dbl float64
	str string
	raw []byte
}

// BoolValue wraps a bool.
func BoolValue(v bool) Value {
	var n int64
	if v {
		n = 1
	}
	return Value{typ: BOOL, num: n}
}

// BytesValue wraps raw bytes. The slice is retained, not copied.
func BytesValue(v []byte) Value { return Value{typ: BYTES, raw: v} }

// I16Value wraps a 16 bit integer.
func I16Value(v int16) Value { return Value{typ: I16, num: int64(v)} }

// I32Value wraps a 32 bit integer.
func I32Value(v int32) Value { return Value{typ: I32, num: int64(v)} }

// I64Value wraps a 64 bit integer.
func I64Value(v int64) Value { return Value{typ: I64, num: v} }

// DoubleValue wraps a float64.
func DoubleValue(v float64) Value { return Value{typ: DOUBLE, dbl: v} }

// StringValue wraps a string.
func StringValue(v string) Value { return Value{typ: STRING, str: v} }

// ValueOf converts a Go value into a Value. Unsigned integers keep their bit
// pattern in the signed type of the same width, anything without a natural
// mapping is rendered with %+v.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case []byte:
		return BytesValue(t)
	case int8:
		return I16Value(int16(t))
	case uint8:
		return I16Value(int16(t))
	case int16:
		return I16Value(t)
	case uint16:
		return I16Value(int16(t))
	case int32:
		return I32Value(t)
	case uint32:
		return I32Value(int32(t))
	case int:
		return I64Value(int64(t))
	case uint:
		return I64Value(int64(t))
	case int64:
		return I64Value(t)
	case uint64:
		return I64Value(int64(t))
	case float32:
		return DoubleValue(float64(t))
	case float64:
		return DoubleValue(t)
	case string:
		return StringValue(t)
	case fmt.Stringer:
		return StringValue(t.String())
	default:
		return StringValue(fmt.Sprintf("%+v", t))
	}
}

// Type returns the annotation type tag.
func (v Value) Type() AnnotationType { return v.typ }

// AsBool returns the payload of a BOOL value.
func (v Value) AsBool() (bool, bool) { return v.num != 0, v.typ == BOOL }

// AsBytes returns the payload of a BYTES value.
func (v Value) AsBytes() ([]byte, bool) { return v.raw, v.typ == BYTES }

// AsInt16 returns the payload of an I16 value.
func (v Value) AsInt16() (int16, bool) { return int16(v.num), v.typ == I16 }

// AsInt32 returns the payload of an I32 value.
func (v Value) AsInt32() (int32, bool) { return int32(v.num), v.typ == I32 }

// AsInt64 returns the payload of an I64 value.
func (v Value) AsInt64() (int64, bool) { return v.num, v.typ == I64 }

// AsUint16 reinterprets an I16 value as unsigned.
func (v Value) AsUint16() (uint16, bool) { return uint16(v.num), v.typ == I16 }

// AsUint32 reinterprets an I32 value as unsigned.
func (v Value) AsUint32() (uint32, bool) { return uint32(v.num), v.typ == I32 }

// AsUint64 reinterprets an I64 value as unsigned.
func (v Value) AsUint64() (uint64, bool) { return uint64(v.num), v.typ == I64 }

// AsDouble returns the payload of a DOUBLE value.
func (v Value) AsDouble() (float64, bool) { return v.dbl, v.typ == DOUBLE }

// AsString returns the payload of a STRING value.
func (v Value) AsString() (string, bool) { return v.str, v.typ == STRING }

// String renders the payload as text.
func (v Value) String() string {
	switch v.typ {
	case BOOL:
		return strconv.FormatBool(v.num != 0)
	case BYTES:
		return fmt.Sprintf("%x", v.raw)
	case I16, I32, I64:
		return strconv.FormatInt(v.num, 10)
	case DOUBLE:
		return strconv.FormatFloat(v.dbl, 'g', -1, 64)
	default:
		return v.str
	}
}
