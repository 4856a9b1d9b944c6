// Package storage provides the fixed-capacity tuple store. Tuples live in
// an arena of indexed slots; when the arena is full the tuples with the
// smallest leasing are evicted first. Expiry is lazy: expired tuples stay
// in their slot, invisible to scans, until an eviction or a claim touches
// them. Every insert bumps a generation counter and wakes waiters.
package storage
