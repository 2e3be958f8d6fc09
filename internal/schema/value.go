package schema

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind discriminates the closed set of value representations a field can hold.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindObject:
		return "object"
	}
	return "absent"
}

// Value is a tagged union over the dynamic contents of a field. The zero value
// is Absent. Values are immutable once constructed; type switches over Kind are
// exhaustive by construction.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	t    time.Time
	obj  map[string]interface{}
}

func Absent() Value                         { return Value{} }
func String(s string) Value                 { return Value{kind: KindString, str: s} }
func Number(n float64) Value                { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value                     { return Value{kind: KindBool, b: b} }
func Date(t time.Time) Value                { return Value{kind: KindDate, t: t} }
func Object(m map[string]interface{}) Value { return Value{kind: KindObject, obj: m} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsAbsent() bool  { return v.kind == KindAbsent }

func (v Value) Str() string                 { return v.str }
func (v Value) Num() float64                { return v.num }
func (v Value) Boolean() bool               { return v.b }
func (v Value) Time() time.Time             { return v.t }
func (v Value) Obj() map[string]interface{} { return v.obj }

// FromJSON maps a json.Unmarshal-decoded interface value into a Value.
// JSON numbers arrive as float64; objects as map[string]interface{}; null as nil.
// Dates are carried as strings on the wire and promoted to KindDate by the
// schema during validation of date-typed fields.
func FromJSON(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Absent(), nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case bool:
		return Bool(x), nil
	case map[string]interface{}:
		return Object(x), nil
	}
	return Absent(), fmt.Errorf("unsupported JSON value of type %T", raw)
}

// ToJSON returns the plain interface representation suitable for json.Marshal.
// Dates serialize as RFC 3339 strings so an export round-trips through FromJSON.
func (v Value) ToJSON() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindObject:
		return v.obj
	}
	return nil
}

// Display renders the value for human-readable summaries.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindObject:
		return fmt.Sprintf("%v", v.obj)
	}
	return "not set"
}

// Equal reports deep equality between two values. Object values compare by
// their JSON rendering, which is enough for audit and round-trip checks.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	case KindObject:
		return fmt.Sprintf("%v", v.obj) == fmt.Sprintf("%v", o.obj)
	}
	return true
}
