// Package csp provides CSP-style (Communicating Sequential Processes)
// channels: typed, rendezvous or bounded-buffered message-passing
// primitives with per-operation timeouts, cancellation, graceful
// retirement, and a two-phase commit protocol that lets a single channel
// operation be atomically chosen among many alternatives.
//
// Core types
//   - Channel[T]: the channel kernel. Construct with NewChannel[T](opts...).
//   - Handle: the offer-protocol capability (offer/withdraw/commit) that
//     makes a Read or Write cancellable and lets a Selector choose exactly
//     one of many pending operations atomically.
//   - ReadFromAny / WriteToAny: multi-channel selection.
//   - BroadcastChannel[T]: one write delivered to every subscriber parked
//     in Read at that moment.
//   - Scope: a nested, task-local name → channel registry.
//
// Blocking model
// Read and Write block the calling goroutine until the operation settles,
// is cancelled via ctx, or times out. There is no separate async surface:
// the goroutine itself plays the role of the "promise" a non-Go
// implementation would return.
//
// Channel lifecycle
// A channel starts active. Retire(false) lets any buffered writes already
// returned to their callers drain to readers before the channel reaches
// retired; Retire(true) retires immediately, failing all pending entries
// with ErrRetired. Once retired, a channel never accepts new entries.
package csp
