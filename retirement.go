package csp

// Retire begins shutting the channel down. With immediate=true it closes
// right away: every still-queued reader and writer is withdrawn and
// resolved with ErrRetired, and any buffered values not yet read are
// discarded. With immediate=false it retires gracefully: the channel
// stops admitting new writes but keeps matching queued/future reads
// against whatever is already buffered or already blocked, for exactly
// enough rendezvous to drain the visible tail, before closing on its own.
//
// Calling Retire on an already-retiring channel with immediate=true
// escalates it to immediate closure. Calling it on an already-retired
// channel is a no-op. Modeled on the teacher's lifecycleCoordinator:
// cancel, drain, resolve — exactly once.
func (c *Channel[T]) Retire(immediate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateRetired {
		return
	}

	if immediate {
		c.finishRetirementLocked()
		return
	}

	if c.state == stateActive {
		c.state = stateRetiring
		// writerQueueLen spans both segments of the split writer queue:
		// the already-buffered entries and the still-blocked ones
		// together form the single logical writer queue whose length
		// the countdown is sized against.
		writerQueueLen := len(c.bufferedWrites) + len(c.blockedWriters)
		c.retireCount = retireCountdown(writerQueueLen, c.buffer)
		if c.retireCount <= 0 {
			c.finishRetirementLocked()
		}
	}
}

// retireCountdown implements the resolved open question from spec.md: the
// number of additional successful reads a retiring channel will still
// service before closing is one more than however much of the visible
// writer queue the buffer can represent — "+1" accounts for one more
// rendezvous to drain the visible tail.
func retireCountdown(writerQueueLen int, buffer uint) int {
	b := int(buffer)
	if writerQueueLen < b {
		return writerQueueLen + 1
	}
	return b + 1
}

// IsRetired reports whether Retire has been called, whether or not the
// channel has finished draining: callers use it to stop offering new
// writes, which Write also enforces on their behalf by rejecting with
// ErrRetired.
func (c *Channel[T]) IsRetired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateActive
}

// onRetirementProgressLocked is called after every Read that actually
// received a value (a buffered pop or a live rendezvous), decrementing
// the retiring countdown and finishing retirement once it reaches zero.
func (c *Channel[T]) onRetirementProgressLocked() {
	if c.state != stateRetiring {
		return
	}
	c.retireCount--
	if c.retireCount <= 0 {
		c.finishRetirementLocked()
	}
}

// finishRetirementLocked transitions the channel to fully retired: every
// remaining queued writer and reader is withdrawn and resolved with
// ErrRetired, and any values still sitting in the buffer are discarded
// (only reachable via an immediate retire; a graceful retire's countdown
// is sized so the buffer empties before this runs).
func (c *Channel[T]) finishRetirementLocked() {
	if c.state == stateRetired {
		return
	}
	identity := c.identity()

	for _, w := range c.blockedWriters {
		safeWithdraw(w.handle, identity)
		c.cancelEntryExpiry(w)
		w.resolve(zeroOf[T](), ErrRetired)
	}
	if n := len(c.blockedWriters); n > 0 {
		c.metrics.pendingWriters.Add(-int64(n))
	}
	c.blockedWriters = nil

	for _, r := range c.readers {
		safeWithdraw(r.handle, identity)
		c.cancelEntryExpiry(r)
		r.resolve(zeroOf[T](), ErrRetired)
	}
	if n := len(c.readers); n > 0 {
		c.metrics.pendingReaders.Add(-int64(n))
	}
	c.readers = nil

	c.bufferedWrites = nil
	c.state = stateRetired
	c.metrics.retirements.Add(1)
}
