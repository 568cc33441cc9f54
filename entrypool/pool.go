// Package entrypool recycles the pending-entry objects a Channel enqueues
// while waiting for a match, so a busy channel doesn't churn one heap
// allocation per Read/Write under load.
//
// Adapted from the teacher's pool package, which sized a pool of task
// workers; here the same Get/Put shape sizes a pool of entry objects
// instead, picked by the same signal the teacher used for workers: is
// there a known upper bound on how many can be live at once.
package entrypool

// Pool recycles opaque entry objects. Get returns an existing instance or
// constructs a new one; Put returns an instance for reuse. Callers are
// responsible for resetting any state Get returns before reuse.
type Pool interface {
	Get() interface{}
	Put(interface{})
}
