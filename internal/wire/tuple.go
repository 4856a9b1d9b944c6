package wire

import (
	"fmt"
	"time"

	"tuplespace/internal/tuple"
)

// FromTuple converts a tuple to its wire form.
func FromTuple(t *tuple.Tuple) *Tuple {
	if t == nil {
		return nil
	}
	w := &Tuple{Fields: make([]*Field, 0, t.Len())}
	if l := t.Leasing(); !l.IsZero() {
		w.LeasingSeconds = l.Unix()
		w.LeasingNanos = int32(l.Nanosecond())
	}
	for i := 0; i < t.Len(); i++ {
		w.Fields = append(w.Fields, fromField(t.Field(i)))
	}
	return w
}

func fromField(f tuple.Field) *Field {
	w := &Field{Kind: uint32(f.Kind()), Formal: f.IsFormal()}
	if f.IsFormal() {
		return w
	}
	switch f.Kind() {
	case tuple.KindInt:
		w.Int = f.AsInt()
	case tuple.KindFloat:
		w.Float = f.AsFloat()
	case tuple.KindString:
		w.Str = f.AsString()
	case tuple.KindBool:
		w.Bool = f.AsBool()
	case tuple.KindBytes:
		w.Bytes = f.AsBytes()
	}
	return w
}

// ToTuple converts the wire form back into a tuple. Unknown kinds are
// rejected with ErrMalformed.
func (m *Tuple) ToTuple() (*tuple.Tuple, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: missing tuple", ErrMalformed)
	}
	fields := make([]tuple.Field, 0, len(m.Fields))
	for i, w := range m.Fields {
		f, err := w.toField()
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		fields = append(fields, f)
	}
	if m.LeasingNanos < 0 || m.LeasingNanos >= 1e9 {
		return nil, fmt.Errorf("%w: leasing nanos %d out of range", ErrMalformed, m.LeasingNanos)
	}
	var leasing time.Time
	if m.LeasingSeconds != 0 || m.LeasingNanos != 0 {
		leasing = time.Unix(m.LeasingSeconds, int64(m.LeasingNanos))
	}
	return tuple.New(leasing, fields...), nil
}

func (m *Field) toField() (tuple.Field, error) {
	kind := tuple.Kind(m.Kind)
	if m.Kind > uint32(tuple.KindBytes) || !kind.Valid() {
		return tuple.Field{}, fmt.Errorf("%w: unknown kind %d", ErrMalformed, m.Kind)
	}
	if m.Formal {
		return tuple.Formal(kind), nil
	}
	switch kind {
	case tuple.KindInt:
		return tuple.Int(m.Int), nil
	case tuple.KindFloat:
		return tuple.Float(m.Float), nil
	case tuple.KindString:
		return tuple.String(m.Str), nil
	case tuple.KindBool:
		return tuple.Bool(m.Bool), nil
	default:
		return tuple.Bytes(m.Bytes), nil
	}
}

// ToTuples converts a batch, failing on the first malformed tuple.
func ToTuples(ws []*Tuple) ([]*tuple.Tuple, error) {
	out := make([]*tuple.Tuple, 0, len(ws))
	for i, w := range ws {
		t, err := w.ToTuple()
		if err != nil {
			return nil, fmt.Errorf("tuple %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
