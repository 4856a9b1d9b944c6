package tuple

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// Kind is the type tag of a field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindBytes
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Valid reports whether k names a field kind.
func (k Kind) Valid() bool {
	return k >= KindInt && k <= KindBytes
}

// Field is a single tuple position. The zero Field is invalid and never
// matches anything.
type Field struct {
	kind   Kind
	formal bool
	num    int64   // KindInt, KindBool
	flt    float64 // KindFloat
	str    string  // KindString, KindBytes
}

// Int returns an actual int field.
func Int(v int64) Field {
	return Field{kind: KindInt, num: v}
}

// Float returns an actual float field.
func Float(v float64) Field {
	return Field{kind: KindFloat, flt: v}
}

// String returns an actual string field.
func String(v string) Field {
	return Field{kind: KindString, str: v}
}

// Bool returns an actual bool field.
func Bool(v bool) Field {
	f := Field{kind: KindBool}
	if v {
		f.num = 1
	}
	return f
}

// Bytes returns an actual bytes field. The slice is copied.
func Bytes(v []byte) Field {
	return Field{kind: KindBytes, str: string(v)}
}

// Formal returns a wildcard field of the given kind.
func Formal(k Kind) Field {
	return Field{kind: k, formal: true}
}

// Kind returns the field's type tag.
func (f Field) Kind() Kind { return f.kind }

// IsFormal reports whether f is a wildcard.
func (f Field) IsFormal() bool { return f.formal }

// IsActual reports whether f carries a value.
func (f Field) IsActual() bool { return !f.formal }

// AsInt returns the value of an int field.
func (f Field) AsInt() int64 { return f.num }

// AsFloat returns the value of a float field.
func (f Field) AsFloat() float64 { return f.flt }

// AsString returns the value of a string field.
func (f Field) AsString() string { return f.str }

// AsBool returns the value of a bool field.
func (f Field) AsBool() bool { return f.num != 0 }

// AsBytes returns a copy of the value of a bytes field.
func (f Field) AsBytes() []byte { return []byte(f.str) }

// Value returns the field value as its static Go type, or nil for
// formal and invalid fields.
func (f Field) Value() any {
	if f.formal {
		return nil
	}
	switch f.kind {
	case KindInt:
		return f.num
	case KindFloat:
		return f.flt
	case KindString:
		return f.str
	case KindBool:
		return f.num != 0
	case KindBytes:
		return []byte(f.str)
	default:
		return nil
	}
}

// Equal reports structural equality: two formals of the same kind, or two
// actuals of the same kind holding equal values.
func (f Field) Equal(o Field) bool {
	if f.kind != o.kind || f.formal != o.formal {
		return false
	}
	if f.formal {
		return true
	}
	return valueEqual(f, o)
}

// valueEqual compares the values of two actual fields of the same kind.
func valueEqual(a, b Field) bool {
	switch a.kind {
	case KindFloat:
		return a.flt == b.flt
	case KindInt, KindBool, KindString, KindBytes:
		return a.num == b.num && a.str == b.str
	default:
		return false
	}
}

// bind matches a query position against a candidate position and returns
// the bound (actual) field.
func bind(q, c Field) (Field, bool) {
	if !q.kind.Valid() || q.kind != c.kind {
		return Field{}, false
	}
	switch {
	case q.formal && c.formal:
		return Field{}, false
	case q.formal:
		return c, true
	case c.formal:
		return q, true
	case valueEqual(q, c):
		return q, true
	default:
		return Field{}, false
	}
}

// String renders an actual field as its value and a formal as ?kind.
func (f Field) String() string {
	if f.formal {
		return "?" + f.kind.String()
	}
	switch f.kind {
	case KindInt:
		return strconv.FormatInt(f.num, 10)
	case KindFloat:
		return strconv.FormatFloat(f.flt, 'g', -1, 64)
	case KindString:
		return strconv.Quote(f.str)
	case KindBool:
		return strconv.FormatBool(f.num != 0)
	case KindBytes:
		return "0x" + hex.EncodeToString([]byte(f.str))
	default:
		return fmt.Sprintf("<invalid kind %d>", f.kind)
	}
}
