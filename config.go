package csp

import "github.com/ygrebnov/csp/metrics"

// OverflowPolicy controls what happens when a pending-queue bound (R or W)
// would be exceeded by enqueueing a new entry.
type OverflowPolicy int

const (
	// OverflowReject fails the new entry immediately with ErrOverflow.
	OverflowReject OverflowPolicy = iota

	// OverflowDropOldest evicts the queue head (resolved with ErrCancelled)
	// and enqueues the new entry.
	OverflowDropOldest

	// OverflowDropNewest resolves the new entry with ErrCancelled and
	// leaves the queue untouched.
	OverflowDropNewest

	// OverflowDropRandom evicts a uniformly random queue member (resolved
	// with ErrCancelled) and enqueues the new entry.
	OverflowDropRandom

	// OverflowBlock is accepted for symmetry with the other policies but,
	// per spec.md §4.2, is treated identically to OverflowReject: the
	// reference design never actually blocks a sender/receiver admission
	// beyond the ordinary enqueue-and-wait path.
	OverflowBlock
)

// ChannelConfig holds Channel construction parameters. Built via
// ChannelOption functions passed to NewChannel; see options.go.
//
// Modeled on the teacher's Config/options split (config.go + options.go +
// defaults.go).
type ChannelConfig struct {
	// Name identifies the channel for diagnostics and scope registration.
	// Empty means anonymous: NewChannel then names the channel "chan-"
	// followed by a freshly generated uuid.
	Name string

	// Buffer is the buffer capacity B. 0 means rendezvous.
	Buffer uint

	// MaxPendingReaders is R; -1 means unbounded.
	MaxPendingReaders int

	// MaxPendingWriters is W; -1 means unbounded.
	MaxPendingWriters int

	// ReaderOverflow / WriterOverflow select the eviction policy applied
	// when MaxPendingReaders/MaxPendingWriters would be exceeded.
	ReaderOverflow OverflowPolicy
	WriterOverflow OverflowPolicy

	// Metrics is the instrumentation provider. Defaults to a no-op.
	Metrics metrics.Provider

	// Logger receives diagnostics from recovered panics in user-supplied
	// Handle implementations. Defaults to a no-op.
	Logger Logger
}

func defaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Buffer:            0,
		MaxPendingReaders: -1,
		MaxPendingWriters: -1,
		ReaderOverflow:    OverflowReject,
		WriterOverflow:    OverflowReject,
		Metrics:           metrics.NewNoopProvider(),
		Logger:            NoopLogger{},
	}
}

// validateChannelConfig returns ErrInvalidArgument for a pending bound
// below -1. Buffer is unsigned, so a negative buffer cannot be expressed;
// no other combination of options is rejected.
func validateChannelConfig(cfg *ChannelConfig) error {
	if cfg.MaxPendingReaders < -1 {
		return ErrInvalidArgument
	}
	if cfg.MaxPendingWriters < -1 {
		return ErrInvalidArgument
	}
	return nil
}
