package csp

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/ygrebnov/csp/entrypool"
	"github.com/ygrebnov/csp/metrics"
)

type channelState int32

const (
	stateActive channelState = iota
	stateRetiring
	stateRetired
)

var nextChannelID uint64

func zeroOf[T any]() T {
	var z T
	return z
}

// Channel is a typed CSP channel: a rendezvous point between blocked
// readers and writers, mediated by a two-phase offer/commit handshake so
// that a Selector watching several channels at once can participate
// without ever completing more than one of them.
//
// The matching engine is grounded on the dispatcher/worker pairing loop in
// the teacher's dispatcher.go and worker.go (a queue of waiters matched
// one at a time against incoming work, under a single lock), generalized
// from "task to worker" to "writer to reader" and made symmetric: either
// side can be the one already queued.
type Channel[T any] struct {
	name string
	id   uint64

	mu deadlock.Mutex

	buffer            uint
	maxPendingReaders int
	maxPendingWriters int
	readerOverflow    OverflowPolicy
	writerOverflow    OverflowPolicy

	state       channelState
	retireCount int

	readers        []*pendingEntry[T] // blocked readers, FIFO
	blockedWriters []*pendingEntry[T] // blocked writers, FIFO
	bufferedWrites []*pendingEntry[T] // committed values sitting in the buffer (handle always nil)

	readerPool entrypool.Pool
	writerPool entrypool.Pool

	readTick  uint64
	writeTick uint64

	logger  Logger
	metrics channelMetrics
}

type channelMetrics struct {
	matches        metrics.Counter
	timeouts       metrics.Counter
	retirements    metrics.Counter
	pendingReaders metrics.UpDownCounter
	pendingWriters metrics.UpDownCounter
}

// NewChannel constructs a Channel with the given options. It panics if the
// assembled configuration is invalid (a pending bound below -1): construction
// errors are programmer errors, the same class the teacher's
// workers.New treats as fatal-at-setup rather than a runtime condition
// callers are expected to recover from.
func NewChannel[T any](opts ...ChannelOption) *Channel[T] {
	cfg, err := buildChannelConfig(opts)
	if err != nil {
		panic("csp: " + err.Error())
	}

	name := cfg.Name
	if name == "" {
		name = "chan-" + uuid.NewString()
	}
	c := &Channel[T]{
		name:              name,
		id:                atomic.AddUint64(&nextChannelID, 1),
		buffer:            cfg.Buffer,
		maxPendingReaders: cfg.MaxPendingReaders,
		maxPendingWriters: cfg.MaxPendingWriters,
		readerOverflow:    cfg.ReaderOverflow,
		writerOverflow:    cfg.WriterOverflow,
		logger:            cfg.Logger,
		metrics: channelMetrics{
			matches:        cfg.Metrics.Counter("csp_channel_matches"),
			timeouts:       cfg.Metrics.Counter("csp_channel_timeouts"),
			retirements:    cfg.Metrics.Counter("csp_channel_retirements"),
			pendingReaders: cfg.Metrics.UpDownCounter("csp_channel_pending_readers"),
			pendingWriters: cfg.Metrics.UpDownCounter("csp_channel_pending_writers"),
		},
	}

	newEntry := func() interface{} { return new(pendingEntry[T]) }
	if cfg.MaxPendingReaders >= 0 {
		c.readerPool = entrypool.NewFixed(uint(cfg.MaxPendingReaders)+1, newEntry)
	} else {
		c.readerPool = entrypool.NewDynamic(newEntry)
	}
	if cfg.MaxPendingWriters >= 0 {
		c.writerPool = entrypool.NewFixed(uint(cfg.MaxPendingWriters)+1, newEntry)
	} else {
		c.writerPool = entrypool.NewDynamic(newEntry)
	}

	return c
}

func (c *Channel[T]) identity() ChannelIdentity {
	return ChannelIdentity{Name: c.name, id: uintptr(c.id)}
}

func (c *Channel[T]) bumpReadTick()  { atomic.AddUint64(&c.readTick, 1) }
func (c *Channel[T]) bumpWriteTick() { atomic.AddUint64(&c.writeTick, 1) }

// LastReadTick returns a monotonically increasing counter incremented each
// time a Read successfully receives a value. It stands in for spec's
// wall-clock "last read timestamp": a sequence counter is race-free to
// read without the channel lock and is exactly as useful for detecting
// "did anything change since I last looked".
func (c *Channel[T]) LastReadTick() uint64 { return atomic.LoadUint64(&c.readTick) }

// LastWriteTick is LastReadTick's write-side counterpart: incremented each
// time a Write successfully commits a value, whether by direct rendezvous
// or by landing in the buffer.
func (c *Channel[T]) LastWriteTick() uint64 { return atomic.LoadUint64(&c.writeTick) }

func (c *Channel[T]) cancelEntryExpiry(e *pendingEntry[T]) {
	if e.expireID != 0 {
		defaultExpirationManager().cancel(e.expireID)
		e.expireID = 0
	}
}

func (e *pendingEntry[T]) absoluteDeadline() (time.Time, bool) {
	if e.deadline.isZero() || e.deadline.infinite {
		return time.Time{}, false
	}
	return e.deadline.at, true
}

// Write sends v, blocking until a reader takes it, it lands in the
// channel's buffer, or ctx/deadline elapses.
func (c *Channel[T]) Write(ctx context.Context, v T, opts ...OpOption) error {
	cfg := buildOpConfig(opts)
	entry, immediate, err := c.enqueueOrMatchWrite(v, cfg.handle, cfg.deadline)
	if immediate {
		return wrapOpErr(c.name, OpWrite, cfg.deadline, err)
	}
	return c.awaitWrite(ctx, entry, cfg.deadline)
}

func (c *Channel[T]) awaitWrite(ctx context.Context, entry *pendingEntry[T], deadline Deadline) error {
	select {
	case res := <-entry.done:
		c.releaseWriterEntry(entry)
		return wrapOpErr(c.name, OpWrite, deadline, res.err)
	case <-ctx.Done():
		c.cancelEntry(entry.id, true)
		select {
		case res := <-entry.done:
			c.releaseWriterEntry(entry)
			if res.err == ErrCancelled {
				return wrapOpErr(c.name, OpWrite, deadline, ctx.Err())
			}
			return wrapOpErr(c.name, OpWrite, deadline, res.err)
		default:
			c.releaseWriterEntry(entry)
			return wrapOpErr(c.name, OpWrite, deadline, ctx.Err())
		}
	}
}

// Read blocks until a value is available from a writer or the buffer, or
// ctx/deadline elapses.
func (c *Channel[T]) Read(ctx context.Context, opts ...OpOption) (T, error) {
	cfg := buildOpConfig(opts)
	entry, val, immediate, err := c.enqueueOrMatchRead(cfg.handle, cfg.deadline)
	if immediate {
		return val, wrapOpErr(c.name, OpRead, cfg.deadline, err)
	}
	return c.awaitRead(ctx, entry, cfg.deadline)
}

func (c *Channel[T]) awaitRead(ctx context.Context, entry *pendingEntry[T], deadline Deadline) (T, error) {
	select {
	case res := <-entry.done:
		c.releaseReaderEntry(entry)
		return res.value, wrapOpErr(c.name, OpRead, deadline, res.err)
	case <-ctx.Done():
		c.cancelEntry(entry.id, false)
		select {
		case res := <-entry.done:
			c.releaseReaderEntry(entry)
			if res.err == ErrCancelled {
				return zeroOf[T](), wrapOpErr(c.name, OpRead, deadline, ctx.Err())
			}
			return res.value, wrapOpErr(c.name, OpRead, deadline, res.err)
		default:
			c.releaseReaderEntry(entry)
			return zeroOf[T](), wrapOpErr(c.name, OpRead, deadline, ctx.Err())
		}
	}
}

func wrapOpErr(name string, op Op, deadline Deadline, err error) error {
	if err == nil {
		return nil
	}
	at := deadline.at
	return newOpError(name, op, at, err)
}

// enqueueOrMatchWrite is Write's core engine, shared with Selector's
// WriteToAny: it either completes synchronously (immediate=true) or
// enqueues a blocked-writer entry and returns it for the caller to await.
func (c *Channel[T]) enqueueOrMatchWrite(value T, handle Handle, deadline Deadline) (entry *pendingEntry[T], immediate bool, err error) {
	identity := c.identity()
	c.mu.Lock()

	if c.state != stateActive {
		c.mu.Unlock()
		return nil, true, ErrRetired
	}

	for i := 0; i < len(c.readers); i++ {
		r := c.readers[i]
		accepted, panicked := safeOffer(r.handle, identity)
		if panicked {
			c.logger.Errorf("csp: reader offer handle panicked on channel %q", c.name)
			c.removeReaderAt(i)
			c.cancelEntryExpiry(r)
			r.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}
		if !accepted {
			// Vetoed: per the matching algorithm, a reader that declines
			// has chosen to leave and is dequeued rather than left in
			// place for the next candidate to trip over again.
			c.removeReaderAt(i)
			c.cancelEntryExpiry(r)
			r.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}

		wAccepted, wPanicked := safeOffer(handle, identity)
		if wPanicked {
			c.logger.Errorf("csp: writer offer handle panicked on channel %q", c.name)
			safeWithdraw(r.handle, identity)
			c.mu.Unlock()
			return nil, true, ErrCancelled
		}
		if !wAccepted {
			safeWithdraw(r.handle, identity)
			c.mu.Unlock()
			return nil, true, ErrCancelled
		}

		safeCommit(r.handle, identity)
		safeCommit(handle, identity)
		c.removeReaderAt(i)
		c.cancelEntryExpiry(r)
		r.resolve(value, nil)
		c.bumpWriteTick()
		c.bumpReadTick()
		c.metrics.matches.Add(1)
		c.mu.Unlock()
		return nil, true, nil
	}

	if uint(len(c.bufferedWrites)) < c.buffer {
		accepted, panicked := safeOffer(handle, identity)
		if panicked || !accepted {
			c.mu.Unlock()
			return nil, true, ErrCancelled
		}
		safeCommit(handle, identity)
		c.bufferedWrites = append(c.bufferedWrites, &pendingEntry[T]{value: value})
		c.bumpWriteTick()
		c.mu.Unlock()
		return nil, true, nil
	}

	if !deadline.isZero() && deadline.expired(time.Now()) {
		c.mu.Unlock()
		return nil, true, ErrTimeout
	}

	// The caller's handle is not offered on enqueue: it is offered only
	// when a peer matches this entry, so a selector's shared flag stays
	// free for whichever of its branches matches first.
	if err := c.checkWriterAdmission(identity); err != nil {
		c.mu.Unlock()
		return nil, true, err
	}

	e := c.acquireWriterEntry(handle, deadline)
	e.value = value
	c.blockedWriters = append(c.blockedWriters, e)
	c.metrics.pendingWriters.Add(1)
	if at, ok := e.absoluteDeadline(); ok {
		e.expireID = defaultExpirationManager().register(at, func() { c.timeoutWriter(e.id) })
	}
	c.mu.Unlock()
	return e, false, nil
}

// enqueueOrMatchRead is Read's core engine, shared with Selector's
// ReadFromAny.
func (c *Channel[T]) enqueueOrMatchRead(handle Handle, deadline Deadline) (entry *pendingEntry[T], immediateVal T, immediate bool, err error) {
	identity := c.identity()
	c.mu.Lock()

	if c.state == stateRetired {
		c.mu.Unlock()
		return nil, zeroOf[T](), true, ErrRetired
	}

	if len(c.bufferedWrites) > 0 {
		accepted, panicked := safeOffer(handle, identity)
		if panicked || !accepted {
			c.mu.Unlock()
			return nil, zeroOf[T](), true, ErrCancelled
		}
		safeCommit(handle, identity)
		head := c.bufferedWrites[0]
		c.bufferedWrites = c.bufferedWrites[1:]
		value := head.value
		// While retiring, a blocked writer is moved into the buffer only if
		// the countdown leaves a later read to drain it; otherwise it stays
		// blocked and is resolved with ErrRetired when retirement finishes.
		if c.state == stateActive || len(c.bufferedWrites)+1 < c.retireCount {
			c.promoteBlockedWriterLocked(identity)
		}
		c.bumpReadTick()
		c.metrics.matches.Add(1)
		c.onRetirementProgressLocked()
		c.mu.Unlock()
		return nil, value, true, nil
	}

	for i := 0; i < len(c.blockedWriters); i++ {
		w := c.blockedWriters[i]
		accepted, panicked := safeOffer(w.handle, identity)
		if panicked {
			c.logger.Errorf("csp: writer offer handle panicked on channel %q", c.name)
			c.removeWriterAt(i)
			c.cancelEntryExpiry(w)
			w.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}
		if !accepted {
			// Vetoed: the writer has chosen to leave, so it is dequeued
			// here rather than left queued for the next candidate to
			// re-offer to.
			c.removeWriterAt(i)
			c.cancelEntryExpiry(w)
			w.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}

		rAccepted, rPanicked := safeOffer(handle, identity)
		if rPanicked || !rAccepted {
			safeWithdraw(w.handle, identity)
			c.mu.Unlock()
			return nil, zeroOf[T](), true, ErrCancelled
		}

		safeCommit(w.handle, identity)
		safeCommit(handle, identity)
		c.removeWriterAt(i)
		c.cancelEntryExpiry(w)
		value := w.value
		w.resolve(zeroOf[T](), nil)
		c.bumpWriteTick()
		c.bumpReadTick()
		c.metrics.matches.Add(1)
		c.onRetirementProgressLocked()
		c.mu.Unlock()
		return nil, value, true, nil
	}

	if c.state == stateRetiring {
		// Nothing buffered, no writer waiting: the countdown can only be
		// driven by future writes, which retiring channels no longer
		// accept. There is nothing left for a new reader to ever see, so
		// retirement finishes here rather than waiting for retireCount to
		// reach zero on its own.
		c.finishRetirementLocked()
		c.mu.Unlock()
		return nil, zeroOf[T](), true, ErrRetired
	}

	if !deadline.isZero() && deadline.expired(time.Now()) {
		c.mu.Unlock()
		return nil, zeroOf[T](), true, ErrTimeout
	}

	// As on the write side, the caller's handle is offered only when a
	// peer matches this entry, not on enqueue.
	if err := c.checkReaderAdmission(identity); err != nil {
		c.mu.Unlock()
		return nil, zeroOf[T](), true, err
	}

	e := c.acquireReaderEntry(handle, deadline)
	c.readers = append(c.readers, e)
	c.metrics.pendingReaders.Add(1)
	if at, ok := e.absoluteDeadline(); ok {
		e.expireID = defaultExpirationManager().register(at, func() { c.timeoutReader(e.id) })
	}
	c.mu.Unlock()
	return e, zeroOf[T](), false, nil
}

// hasParkedReader reports whether at least one reader is currently
// queued, without touching it. BroadcastChannel uses this to determine
// which of its subscriber mailboxes are actually part of "every reader"
// for a given broadcast round, as distinct from subscribers that exist
// but are not presently blocked in Read.
func (c *Channel[T]) hasParkedReader() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateActive && len(c.readers) > 0
}

// reserveWrite is the offer half of a write whose commit is deferred to
// the caller, the building block BroadcastChannel uses to offer to every
// subscriber mailbox before committing to any of them. It walks the
// reader queue exactly like enqueueOrMatchWrite's matching loop — vetoing
// readers are dequeued and resolved with ErrCancelled in passing — but
// stops at the first reader that accepts and returns it unresolved and
// already removed from the queue, instead of committing in place.
func (c *Channel[T]) reserveWrite() (*pendingEntry[T], bool) {
	identity := c.identity()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateActive {
		return nil, false
	}

	for i := 0; i < len(c.readers); i++ {
		r := c.readers[i]
		accepted, panicked := safeOffer(r.handle, identity)
		if panicked || !accepted {
			c.removeReaderAt(i)
			c.cancelEntryExpiry(r)
			r.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}
		c.removeReaderAt(i)
		c.cancelEntryExpiry(r)
		return r, true
	}
	return nil, false
}

// commitReservedWrite finalizes a reservation obtained from reserveWrite:
// commits the reader's handle and resolves it with value.
func (c *Channel[T]) commitReservedWrite(r *pendingEntry[T], value T) {
	identity := c.identity()
	c.mu.Lock()
	safeCommit(r.handle, identity)
	c.bumpWriteTick()
	c.bumpReadTick()
	c.metrics.matches.Add(1)
	c.mu.Unlock()
	r.resolve(value, nil)
}

// abandonReservedWrite undoes a reservation obtained from reserveWrite,
// withdrawing the reader's handle and restoring it to the front of the
// reader queue so it is matched next, preserving FIFO order. If the
// channel retired in the meantime, the reader is resolved with ErrRetired
// instead, matching what would have happened had it stayed queued.
func (c *Channel[T]) abandonReservedWrite(r *pendingEntry[T]) {
	identity := c.identity()
	c.mu.Lock()
	safeWithdraw(r.handle, identity)
	if c.state != stateActive {
		c.mu.Unlock()
		r.resolve(zeroOf[T](), ErrRetired)
		return
	}
	c.readers = append([]*pendingEntry[T]{r}, c.readers...)
	c.metrics.pendingReaders.Add(1)
	if at, ok := r.absoluteDeadline(); ok {
		r.expireID = defaultExpirationManager().register(at, func() { c.timeoutReader(r.id) })
	}
	c.mu.Unlock()
}

// promoteBlockedWriterLocked moves (at most) one blocked writer into the
// buffer slot a Read just freed, walking the queue past any entries whose
// handle currently vetoes (a losing selector branch that has not yet been
// proactively cancelled).
func (c *Channel[T]) promoteBlockedWriterLocked(identity ChannelIdentity) {
	for i := 0; i < len(c.blockedWriters); i++ {
		w := c.blockedWriters[i]
		accepted, panicked := safeOffer(w.handle, identity)
		if panicked {
			c.removeWriterAt(i)
			c.cancelEntryExpiry(w)
			w.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}
		if !accepted {
			c.removeWriterAt(i)
			c.cancelEntryExpiry(w)
			w.resolve(zeroOf[T](), ErrCancelled)
			i--
			continue
		}
		safeCommit(w.handle, identity)
		c.removeWriterAt(i)
		c.cancelEntryExpiry(w)
		c.bufferedWrites = append(c.bufferedWrites, &pendingEntry[T]{value: w.value})
		c.bumpWriteTick()
		w.resolve(zeroOf[T](), nil)
		return
	}
}

func (c *Channel[T]) checkWriterAdmission(identity ChannelIdentity) error {
	if c.maxPendingWriters < 0 || len(c.blockedWriters) < c.maxPendingWriters {
		return nil
	}
	switch c.writerOverflow {
	case OverflowDropOldest:
		victim := c.blockedWriters[0]
		c.blockedWriters = c.blockedWriters[1:]
		c.cancelEntryExpiry(victim)
		safeWithdraw(victim.handle, identity)
		c.metrics.pendingWriters.Add(-1)
		victim.resolve(zeroOf[T](), ErrCancelled)
		return nil
	case OverflowDropRandom:
		idx := rand.Intn(len(c.blockedWriters))
		victim := c.blockedWriters[idx]
		c.blockedWriters = append(c.blockedWriters[:idx], c.blockedWriters[idx+1:]...)
		c.cancelEntryExpiry(victim)
		safeWithdraw(victim.handle, identity)
		c.metrics.pendingWriters.Add(-1)
		victim.resolve(zeroOf[T](), ErrCancelled)
		return nil
	case OverflowDropNewest:
		return ErrCancelled
	default: // OverflowReject, OverflowBlock
		return ErrOverflow
	}
}

func (c *Channel[T]) checkReaderAdmission(identity ChannelIdentity) error {
	if c.maxPendingReaders < 0 || len(c.readers) < c.maxPendingReaders {
		return nil
	}
	switch c.readerOverflow {
	case OverflowDropOldest:
		victim := c.readers[0]
		c.readers = c.readers[1:]
		c.cancelEntryExpiry(victim)
		safeWithdraw(victim.handle, identity)
		c.metrics.pendingReaders.Add(-1)
		victim.resolve(zeroOf[T](), ErrCancelled)
		return nil
	case OverflowDropRandom:
		idx := rand.Intn(len(c.readers))
		victim := c.readers[idx]
		c.readers = append(c.readers[:idx], c.readers[idx+1:]...)
		c.cancelEntryExpiry(victim)
		safeWithdraw(victim.handle, identity)
		c.metrics.pendingReaders.Add(-1)
		victim.resolve(zeroOf[T](), ErrCancelled)
		return nil
	case OverflowDropNewest:
		return ErrCancelled
	default:
		return ErrOverflow
	}
}

func (c *Channel[T]) removeReaderAt(i int) {
	c.readers = append(c.readers[:i], c.readers[i+1:]...)
	c.metrics.pendingReaders.Add(-1)
}

func (c *Channel[T]) removeWriterAt(i int) {
	c.blockedWriters = append(c.blockedWriters[:i], c.blockedWriters[i+1:]...)
	c.metrics.pendingWriters.Add(-1)
}

func (c *Channel[T]) acquireReaderEntry(handle Handle, deadline Deadline) *pendingEntry[T] {
	e := c.readerPool.Get().(*pendingEntry[T])
	e.id = newEntryID()
	e.handle = handle
	e.deadline = deadline
	e.expireID = 0
	e.value = zeroOf[T]()
	if e.done == nil {
		e.done = make(chan result[T], 1)
	}
	return e
}

func (c *Channel[T]) acquireWriterEntry(handle Handle, deadline Deadline) *pendingEntry[T] {
	e := c.writerPool.Get().(*pendingEntry[T])
	e.id = newEntryID()
	e.handle = handle
	e.deadline = deadline
	e.expireID = 0
	e.value = zeroOf[T]()
	if e.done == nil {
		e.done = make(chan result[T], 1)
	}
	return e
}

func (c *Channel[T]) releaseReaderEntry(e *pendingEntry[T]) {
	if e == nil {
		return
	}
	c.readerPool.Put(e)
}

func (c *Channel[T]) releaseWriterEntry(e *pendingEntry[T]) {
	if e == nil {
		return
	}
	c.writerPool.Put(e)
}

// timeoutReader and timeoutWriter are the expiration manager's callbacks:
// they fire on their own goroutine, unsynchronized with the channel lock,
// so each re-validates the entry is still queued before touching it.
func (c *Channel[T]) timeoutReader(id uint64) {
	identity := c.identity()
	c.mu.Lock()
	for i, r := range c.readers {
		if r.id == id {
			c.removeReaderAt(i)
			safeWithdraw(r.handle, identity)
			c.mu.Unlock()
			c.metrics.timeouts.Add(1)
			r.resolve(zeroOf[T](), ErrTimeout)
			return
		}
	}
	c.mu.Unlock()
}

func (c *Channel[T]) timeoutWriter(id uint64) {
	identity := c.identity()
	c.mu.Lock()
	for i, w := range c.blockedWriters {
		if w.id == id {
			c.removeWriterAt(i)
			safeWithdraw(w.handle, identity)
			c.mu.Unlock()
			c.metrics.timeouts.Add(1)
			w.resolve(zeroOf[T](), ErrTimeout)
			return
		}
	}
	c.mu.Unlock()
}

// cancelEntry actively withdraws a still-queued reader or writer entry,
// resolving it with ErrCancelled. Selector calls this on every losing
// branch immediately after a winning Commit, rather than relying solely
// on the lazy "next offer returns false" cleanup: without it a losing
// branch could sit queued indefinitely if nothing else ever visits that
// channel again.
func (c *Channel[T]) cancelEntry(id uint64, isWriter bool) {
	identity := c.identity()
	c.mu.Lock()
	if isWriter {
		for i, w := range c.blockedWriters {
			if w.id == id {
				c.removeWriterAt(i)
				safeWithdraw(w.handle, identity)
				c.mu.Unlock()
				w.resolve(zeroOf[T](), ErrCancelled)
				return
			}
		}
	} else {
		for i, r := range c.readers {
			if r.id == id {
				c.removeReaderAt(i)
				safeWithdraw(r.handle, identity)
				c.mu.Unlock()
				r.resolve(zeroOf[T](), ErrCancelled)
				return
			}
		}
	}
	c.mu.Unlock()
}
