package csp

import (
	"context"
	"sync"

	"github.com/ygrebnov/csp/metrics"
)

// BroadcastChannel fans a single value out to every subscriber currently
// listening, instead of matching exactly one reader the way Channel does.
// Each subscriber gets its own unbuffered rendezvous mailbox internally,
// so delivery to a given subscriber is exactly the same offer/commit
// handshake a plain Channel uses — broadcast only adds the fan-out and
// the readiness gate around it.
//
// Write blocks until initialBarrier subscribers have joined at least
// once, and until minimum subscribers are both present and actively
// parked in Read, then delivers to every subscriber that happens to be
// parked at that instant (subscribers that never call Read simply never
// receive — the same "you must be listening" rule an unbuffered Channel
// enforces one-to-one, generalized to one-to-many).
type BroadcastChannel[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	name string

	initialBarrier int
	minimum        int
	barrierMet     bool

	subs         map[uint64]*Channel[T]
	nextSubID    uint64
	waitingCount int

	logger          Logger
	metricsProvider metrics.Provider
	broadcasts      metrics.Counter
	subscriberGauge metrics.UpDownCounter
}

// NewBroadcastChannel constructs a BroadcastChannel. initialBarrier is the
// number of subscribers that must join before the first Write can
// proceed; minimum is the number of subscribers (both present and
// actively reading) required for every subsequent Write. Panics on
// invalid ChannelOption configuration, matching NewChannel's contract.
func NewBroadcastChannel[T any](initialBarrier, minimum int, opts ...ChannelOption) *BroadcastChannel[T] {
	cfg, err := buildChannelConfig(opts)
	if err != nil {
		panic("csp: " + err.Error())
	}
	if initialBarrier < 0 {
		initialBarrier = 0
	}
	if minimum < 0 {
		minimum = 0
	}

	bc := &BroadcastChannel[T]{
		name:            cfg.Name,
		initialBarrier:  initialBarrier,
		minimum:         minimum,
		subs:            make(map[uint64]*Channel[T]),
		logger:          cfg.Logger,
		metricsProvider: cfg.Metrics,
		broadcasts:      cfg.Metrics.Counter("csp_broadcast_sends"),
		subscriberGauge: cfg.Metrics.UpDownCounter("csp_broadcast_subscribers"),
	}
	bc.cond = sync.NewCond(&bc.mu)
	if bc.initialBarrier == 0 {
		bc.barrierMet = true
	}
	return bc
}

// BroadcastSubscription is one listener registered with a BroadcastChannel.
type BroadcastSubscription[T any] struct {
	bc *BroadcastChannel[T]
	id uint64
	ch *Channel[T]
}

// Subscribe registers a new listener, returning a handle it uses to Read
// delivered values and to Unsubscribe when done.
func (bc *BroadcastChannel[T]) Subscribe() *BroadcastSubscription[T] {
	bc.mu.Lock()
	bc.nextSubID++
	id := bc.nextSubID
	ch := NewChannel[T](WithName(bc.name+"/sub"), WithMetrics(bc.metricsProvider), WithLogger(bc.logger))
	bc.subs[id] = ch
	bc.subscriberGauge.Add(1)
	if len(bc.subs) >= bc.initialBarrier {
		bc.barrierMet = true
	}
	bc.cond.Broadcast()
	bc.mu.Unlock()

	return &BroadcastSubscription[T]{bc: bc, id: id, ch: ch}
}

// Read waits for the next value broadcast to this subscription. The
// mailbox enqueue happens before waitingCount is incremented and the
// gate is signaled, so a broadcaster woken by that signal never observes
// waitingCount ahead of the reader actually being parked in the mailbox.
func (s *BroadcastSubscription[T]) Read(ctx context.Context, opts ...OpOption) (T, error) {
	cfg := buildOpConfig(opts)
	entry, val, immediate, err := s.ch.enqueueOrMatchRead(cfg.handle, cfg.deadline)
	if immediate {
		return val, wrapOpErr(s.ch.name, OpRead, cfg.deadline, err)
	}

	s.bc.mu.Lock()
	s.bc.waitingCount++
	s.bc.cond.Broadcast()
	s.bc.mu.Unlock()
	defer func() {
		s.bc.mu.Lock()
		s.bc.waitingCount--
		s.bc.mu.Unlock()
	}()

	return s.ch.awaitRead(ctx, entry, cfg.deadline)
}

// Unsubscribe removes the subscription and retires its mailbox, waking
// any broadcaster waiting on the minimum-subscriber gate so it can
// re-evaluate.
func (s *BroadcastSubscription[T]) Unsubscribe() {
	s.bc.mu.Lock()
	ch, ok := s.bc.subs[s.id]
	if ok {
		delete(s.bc.subs, s.id)
		s.bc.subscriberGauge.Add(-1)
	}
	s.bc.cond.Broadcast()
	s.bc.mu.Unlock()
	if ok {
		ch.Retire(true)
	}
}

// Write delivers v to every reader currently parked in Read, once enough
// subscribers are present and ready. Delivery is a genuine two-phase
// commit across exactly that set of mailboxes: each is offered the write
// via reserveWrite, and only if every one of them accepts does any of
// them receive the value — a single veto, or a reader dropping out of
// Read between the readiness snapshot and the attempt, withdraws every
// reservation already taken and the round retries. This is the literal
// "atomically offers to every reader; if any reader vetoes, the write
// vetoes too" rule — subscribers that exist but are not currently
// blocked in Read are simply not part of "every reader" for this round,
// the same way minimum only ever counted waitingCount.
func (bc *BroadcastChannel[T]) Write(ctx context.Context, v T, opts ...OpOption) error {
	cfg := buildOpConfig(opts)

	quit := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			bc.mu.Lock()
			bc.cond.Broadcast()
			bc.mu.Unlock()
		case <-quit:
		}
	}()
	defer close(quit)

	for {
		bc.mu.Lock()
		for {
			if err := ctx.Err(); err != nil {
				bc.mu.Unlock()
				return wrapOpErr(bc.name, OpWrite, cfg.deadline, err)
			}
			if bc.barrierMet && len(bc.subs) >= bc.minimum && bc.waitingCount >= bc.minimum {
				break
			}
			bc.cond.Wait()
		}
		targets := make([]*Channel[T], 0, len(bc.subs))
		for _, ch := range bc.subs {
			targets = append(targets, ch)
		}
		bc.mu.Unlock()

		parked := make([]*Channel[T], 0, len(targets))
		for _, ch := range targets {
			if ch.hasParkedReader() {
				parked = append(parked, ch)
			}
		}
		if len(parked) < bc.minimum {
			if err := ctx.Err(); err != nil {
				return wrapOpErr(bc.name, OpWrite, cfg.deadline, err)
			}
			bc.waitForChange()
			continue
		}

		reservations := make([]*pendingEntry[T], len(parked))
		allAccepted := true
		for i, ch := range parked {
			r, ok := ch.reserveWrite()
			if !ok {
				allAccepted = false
				break
			}
			reservations[i] = r
		}

		if !allAccepted {
			for i, ch := range parked {
				if reservations[i] != nil {
					ch.abandonReservedWrite(reservations[i])
				}
			}
			if err := ctx.Err(); err != nil {
				return wrapOpErr(bc.name, OpWrite, cfg.deadline, err)
			}
			bc.waitForChange()
			continue
		}

		for i, ch := range parked {
			ch.commitReservedWrite(reservations[i], v)
		}
		bc.broadcasts.Add(1)
		return nil
	}
}

// waitForChange blocks until some state the readiness gate depends on
// changes: a subscriber joins or leaves, a reader parks or unparks, or
// ctx is cancelled (the goroutine started in Write turns that into a
// Broadcast too). It never holds bc.mu across the wait.
func (bc *BroadcastChannel[T]) waitForChange() {
	bc.mu.Lock()
	bc.cond.Wait()
	bc.mu.Unlock()
}

// Retire retires every subscriber mailbox, the broadcast equivalent of
// Channel.Retire.
func (bc *BroadcastChannel[T]) Retire(immediate bool) {
	bc.mu.Lock()
	targets := make([]*Channel[T], 0, len(bc.subs))
	for _, ch := range bc.subs {
		targets = append(targets, ch)
	}
	bc.mu.Unlock()

	for _, ch := range targets {
		ch.Retire(immediate)
	}
}
