package tuple

import (
	"strings"
	"time"
)

// Tuple is an immutable, fixed-length sequence of fields with a leasing
// deadline. Tuples are shared by pointer: the store, the router and the
// caller all hold the same *Tuple, and its identity is what the router's
// reverse index keys on.
type Tuple struct {
	fields  []Field
	leasing time.Time
}

// New creates a tuple that stays visible until leasing. The fields are
// copied.
func New(leasing time.Time, fields ...Field) *Tuple {
	return &Tuple{
		fields:  append([]Field(nil), fields...),
		leasing: leasing,
	}
}

// Template creates a tuple with zero leasing, for use as a query pattern.
// Stored templates are expired on arrival.
func Template(fields ...Field) *Tuple {
	return New(time.Time{}, fields...)
}

// Len returns the number of fields.
func (t *Tuple) Len() int { return len(t.fields) }

// Field returns the field at position i.
func (t *Tuple) Field(i int) Field { return t.fields[i] }

// Fields returns a copy of the fields.
func (t *Tuple) Fields() []Field { return append([]Field(nil), t.fields...) }

// Leasing returns the absolute expiry instant. The zero time means the
// tuple was not intended for storage.
func (t *Tuple) Leasing() time.Time { return t.leasing }

// Expired reports whether the leasing deadline is before now.
func (t *Tuple) Expired(now time.Time) bool {
	return t.leasing.Before(now)
}

// Match binds query against candidate. Both must have the same length and
// every position must bind: a formal binds an actual of the same kind, two
// actuals bind when kind and value are equal, and two formals never bind.
// The result holds the actual side of every position and carries zero
// leasing.
func Match(query, candidate *Tuple) (*Tuple, bool) {
	if query == nil || candidate == nil || len(query.fields) != len(candidate.fields) {
		return nil, false
	}
	bound := make([]Field, len(query.fields))
	for i := range query.fields {
		f, ok := bind(query.fields[i], candidate.fields[i])
		if !ok {
			return nil, false
		}
		bound[i] = f
	}
	return &Tuple{fields: bound}, true
}

// Matches reports whether Match(t, candidate) succeeds.
func (t *Tuple) Matches(candidate *Tuple) bool {
	if t == nil || candidate == nil || len(t.fields) != len(candidate.fields) {
		return false
	}
	for i := range t.fields {
		if _, ok := bind(t.fields[i], candidate.fields[i]); !ok {
			return false
		}
	}
	return true
}

// Equal reports whether t and o have equal fields and equal leasing.
func (t *Tuple) Equal(o *Tuple) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || len(t.fields) != len(o.fields) || !t.leasing.Equal(o.leasing) {
		return false
	}
	for i := range t.fields {
		if !t.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// String returns a string representation of the tuple.
func (t *Tuple) String() string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i, f := range t.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.String())
	}
	if !t.leasing.IsZero() {
		if len(t.fields) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("leasing=")
		sb.WriteString(t.leasing.UTC().Format(time.RFC3339Nano))
	}
	sb.WriteByte(')')
	return sb.String()
}
