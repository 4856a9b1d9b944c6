// Package tuple implements the typed, positional data model of the tuple
// space. A tuple is an immutable sequence of fields; each field is either
// actual (a kind plus a value) or formal (a kind only, acting as a
// wildcard). Matching binds a query against a candidate position by
// position and yields a fully actual result tuple.
package tuple
