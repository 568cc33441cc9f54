package csp

import "sync/atomic"

// result is what a pendingEntry's completion channel carries: exactly the
// payload needed to settle a Read (a value) or a Write (nothing but an
// error). It plays the role spec.md calls the "completion promise" — see
// SPEC_FULL.md §9 for why no exported Promise[T] type exists.
type result[T any] struct {
	value T
	err   error
}

var nextEntryID uint64

func newEntryID() uint64 { return atomic.AddUint64(&nextEntryID, 1) }

// pendingEntry is a queued reader or writer: spec.md's "tuple of (offer
// handle, completion promise, deadline, and for writers the value)".
//
// done is nil exactly for a writer entry that has already been resolved
// and is sitting in the buffer-sentinel segment of the writer queue
// (spec.md §4.2 step 3): the writer already returned successfully, so
// nothing ever receives on done again.
type pendingEntry[T any] struct {
	id       uint64
	handle   Handle
	done     chan result[T]
	deadline Deadline
	value    T
	expireID uint64 // registration with the expiration manager, 0 = none
}

func newPendingEntry[T any](handle Handle, deadline Deadline) *pendingEntry[T] {
	return &pendingEntry[T]{
		id:       newEntryID(),
		handle:   handle,
		done:     make(chan result[T], 1),
		deadline: deadline,
	}
}

// resolve settles the entry's promise exactly once. A second call before
// the first result is received would block on the full done channel;
// resolve is only ever called by code paths that have just removed the
// entry from its queue under the channel lock, so double-resolution
// cannot occur by construction.
func (e *pendingEntry[T]) resolve(v T, err error) {
	if e.done == nil {
		return
	}
	e.done <- result[T]{value: v, err: err}
}
