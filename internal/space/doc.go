// Package space is the application-facing tuple space of one host.
//
// Out and OutMany deposit tuples. In and Read submit a pattern and return
// a Pending handle that resolves with the first live match in slot order;
// In also removes the matched tuple. Retrievals that find nothing wait for
// the next insert and scan again, so a handle may stay pending forever
// unless its context is cancelled or the space is closed.
//
// At most MaxPending retrievals are in flight at once. Submitting another
// fails with ErrCapacity without queuing.
package space
