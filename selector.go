package csp

import (
	"context"
	"math/rand"
	"reflect"
	"sync/atomic"
)

// Priority selects how ReadFromAny/WriteToAny order their attempts across
// candidate channels.
type Priority int

const (
	// PriorityFirst always tries channels in the order given.
	PriorityFirst Priority = iota
	// PriorityRandom tries channels in a fresh random order each call.
	PriorityRandom
	// PriorityFair rotates the starting point across calls so no channel
	// is perpetually tried last.
	PriorityFair
	// PriorityAny expresses no ordering preference; implemented the same
	// as PriorityRandom, which is as fair a tie-break as any.
	PriorityAny
)

// selectFlag is the shared lock-free Handle every branch of a single
// ReadFromAny/WriteToAny call offers: exactly one Offer can ever succeed,
// which is what makes the whole operation atomic across channels that
// each hold only their own lock. Grounded on the Go runtime's own select
// implementation (other_examples' copy of runtime/chan.go), which
// likewise commits at most one case via a single compare-and-swap over
// all the cases being polled.
type selectFlag struct {
	claimed int32
}

func (f *selectFlag) Offer(ChannelIdentity) bool {
	return atomic.CompareAndSwapInt32(&f.claimed, 0, 1)
}

func (f *selectFlag) Withdraw(ChannelIdentity) {
	atomic.StoreInt32(&f.claimed, 0)
}

func (f *selectFlag) Commit(ChannelIdentity) {}

var _ Handle = (*selectFlag)(nil)

var fairCursor uint64

// nextFairOffset advances a single process-wide cursor shared by every
// PriorityFair call, the same monotonically-advancing-index shape as the
// teacher's reorderer (there: "next output index"; here: "next channel to
// try first").
func nextFairOffset(n int) int {
	if n <= 0 {
		return 0
	}
	v := atomic.AddUint64(&fairCursor, 1)
	return int(v % uint64(n))
}

func orderIndices(n int, priority Priority) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	switch priority {
	case PriorityRandom, PriorityAny:
		rand.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	case PriorityFair:
		off := nextFairOffset(n)
		for i := range idx {
			idx[i] = (off + i) % n
		}
	}
	return idx
}

// ReadFromAny attempts to receive from whichever of channels is ready
// first, per priority, returning the channel that won along with the
// value. It implements spec's multi-channel selector via the offer
// protocol: every candidate is offered the same selectFlag, so at most
// one can ever commit.
func ReadFromAny[T any](ctx context.Context, channels []*Channel[T], priority Priority, opts ...OpOption) (*Channel[T], T, error) {
	if len(channels) == 0 {
		return nil, zeroOf[T](), ErrInvalidArgument
	}
	cfg := buildOpConfig(opts)
	flag := &selectFlag{}
	order := orderIndices(len(channels), priority)

	var waiting []waiter[T]

	for _, idx := range order {
		ch := channels[idx]
		entry, val, immediate, err := ch.enqueueOrMatchRead(flag, cfg.deadline)
		if immediate {
			if err == nil {
				for _, w := range waiting {
					w.ch.cancelEntry(w.entry.id, false)
					drainAndRelease(w.ch, w.entry, false)
				}
				return ch, val, nil
			}
			continue
		}
		waiting = append(waiting, waiter[T]{ch: ch, entry: entry})
	}

	if len(waiting) == 0 {
		return nil, zeroOf[T](), wrapOpErr("", OpSelect, cfg.deadline, ErrRetired)
	}

	cases := make([]reflect.SelectCase, len(waiting)+1)
	for i, w := range waiting {
		cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(w.entry.done)}
	}
	cases[len(waiting)] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}

	chosen, recv, _ := reflect.Select(cases)

	// reflect.Select breaks ties pseudo-randomly when ctx.Done() and a
	// genuine match become ready in the same instant; prefer the match
	// so a value that already committed is never thrown away.
	if chosen == len(waiting) {
		if i, ok := firstReady(waiting); ok {
			chosen, recv = i, reflect.ValueOf(<-waiting[i].entry.done)
		}
	}

	if chosen == len(waiting) {
		for _, w := range waiting {
			w.ch.cancelEntry(w.entry.id, false)
			drainAndRelease(w.ch, w.entry, false)
		}
		return nil, zeroOf[T](), wrapOpErr("", OpSelect, cfg.deadline, ctx.Err())
	}

	won := waiting[chosen]
	for i, w := range waiting {
		if i == chosen {
			continue
		}
		w.ch.cancelEntry(w.entry.id, false)
		drainAndRelease(w.ch, w.entry, false)
	}
	res := recv.Interface().(result[T])
	won.ch.releaseReaderEntry(won.entry)
	return won.ch, res.value, wrapOpErr("", OpSelect, cfg.deadline, res.err)
}

// WriteToAny is ReadFromAny's write-side counterpart.
func WriteToAny[T any](ctx context.Context, channels []*Channel[T], v T, priority Priority, opts ...OpOption) (*Channel[T], error) {
	if len(channels) == 0 {
		return nil, ErrInvalidArgument
	}
	cfg := buildOpConfig(opts)
	flag := &selectFlag{}
	order := orderIndices(len(channels), priority)

	var waiting []waiter[T]

	for _, idx := range order {
		ch := channels[idx]
		entry, immediate, err := ch.enqueueOrMatchWrite(v, flag, cfg.deadline)
		if immediate {
			if err == nil {
				for _, w := range waiting {
					w.ch.cancelEntry(w.entry.id, true)
					drainAndRelease(w.ch, w.entry, true)
				}
				return ch, nil
			}
			continue
		}
		waiting = append(waiting, waiter[T]{ch: ch, entry: entry})
	}

	if len(waiting) == 0 {
		return nil, wrapOpErr("", OpSelect, cfg.deadline, ErrRetired)
	}

	cases := make([]reflect.SelectCase, len(waiting)+1)
	for i, w := range waiting {
		cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(w.entry.done)}
	}
	cases[len(waiting)] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}

	chosen, recv, _ := reflect.Select(cases)

	if chosen == len(waiting) {
		if i, ok := firstReady(waiting); ok {
			chosen, recv = i, reflect.ValueOf(<-waiting[i].entry.done)
		}
	}

	if chosen == len(waiting) {
		for _, w := range waiting {
			w.ch.cancelEntry(w.entry.id, true)
			drainAndRelease(w.ch, w.entry, true)
		}
		return nil, wrapOpErr("", OpSelect, cfg.deadline, ctx.Err())
	}

	won := waiting[chosen]
	for i, w := range waiting {
		if i == chosen {
			continue
		}
		w.ch.cancelEntry(w.entry.id, true)
		drainAndRelease(w.ch, w.entry, true)
	}
	res := recv.Interface().(result[T])
	won.ch.releaseWriterEntry(won.entry)
	return won.ch, wrapOpErr("", OpSelect, cfg.deadline, res.err)
}

type waiter[T any] struct {
	ch    *Channel[T]
	entry *pendingEntry[T]
}

// firstReady does a non-blocking scan for a waiting entry that already has
// a result sitting in done, used to break the reflect.Select tie between
// ctx.Done() and a branch that committed in the same instant.
func firstReady[T any](waiting []waiter[T]) (int, bool) {
	for i, w := range waiting {
		select {
		case res := <-w.entry.done:
			w.entry.done <- res
			return i, true
		default:
		}
	}
	return 0, false
}

// drainAndRelease pulls a just-cancelled entry's already-buffered result
// (cancelEntry always resolves before returning) off done before handing
// the entry back to its pool, so the channel buffer is never reused while
// still holding an unread value.
func drainAndRelease[T any](ch *Channel[T], e *pendingEntry[T], isWriter bool) {
	select {
	case <-e.done:
	default:
	}
	if isWriter {
		ch.releaseWriterEntry(e)
	} else {
		ch.releaseReaderEntry(e)
	}
}
