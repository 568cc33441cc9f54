package entrypool

import "sync"

// NewDynamic returns a Pool with no fixed bound, backed by sync.Pool.
// It's the right choice for a channel whose pending-queue bound is
// unbounded (R or W == -1): there's no known capacity to size a fixed pool
// with, so entries are reclaimed opportunistically by the GC like any
// other sync.Pool-managed object.
func NewDynamic(newFn func() interface{}) Pool {
	return &sync.Pool{New: newFn}
}
