package csp

// ChannelIdentity is the opaque identity a Handle implementation receives
// in Offer/Withdraw/Commit. It lets a custom handle log or branch on which
// channel it's being asked about without coupling Handle to Channel[T]'s
// type parameter (a single Handle — the selector's shared CAS flag, in
// particular — must span channels of unrelated element types).
type ChannelIdentity struct {
	Name string
	id   uintptr
}

// Handle is the two-phase commit capability described by the offer
// protocol: the kernel never completes a match by simply popping a queue,
// it first asks both sides to Offer, and only proceeds to Commit if both
// accept. A nil Handle is the null handle: always accepts, Withdraw and
// Commit are no-ops.
//
// Offer/Withdraw/Commit are invoked while the channel's own lock is held.
// Implementations must not acquire that channel's lock, and may only
// acquire other channels' locks in a fixed global order (see selectFlag in
// selector.go, which avoids the problem entirely by using a lock-free
// atomic flag).
type Handle interface {
	// Offer tentatively reserves the match. Returning false vetoes it;
	// Offer must be idempotent with respect to a subsequent Withdraw (a
	// rejected offer must leave no visible state).
	Offer(c ChannelIdentity) bool

	// Withdraw releases a prior tentative reservation made by Offer.
	Withdraw(c ChannelIdentity)

	// Commit finalizes a match that both sides Offer-accepted. Commit must
	// be infallible.
	Commit(c ChannelIdentity)
}

// HandleFunc adapts three plain functions into a Handle, the way the
// teacher's task.go adapts several plain function shapes into its internal
// task interface. Any nil field behaves as the null handle's no-op for
// that method.
type HandleFunc struct {
	OfferFunc    func(ChannelIdentity) bool
	WithdrawFunc func(ChannelIdentity)
	CommitFunc   func(ChannelIdentity)
}

func (h HandleFunc) Offer(c ChannelIdentity) bool {
	if h.OfferFunc == nil {
		return true
	}
	return h.OfferFunc(c)
}

func (h HandleFunc) Withdraw(c ChannelIdentity) {
	if h.WithdrawFunc != nil {
		h.WithdrawFunc(c)
	}
}

func (h HandleFunc) Commit(c ChannelIdentity) {
	if h.CommitFunc != nil {
		h.CommitFunc(c)
	}
}

var _ Handle = HandleFunc{}

// safeOffer/safeWithdraw/safeCommit invoke a possibly-nil, possibly
// user-supplied Handle with panic recovery, mirroring the teacher's
// worker.execute recover-into-error pattern: Handle is an open capability
// interface (spec: "implemented by: null, selector shared flag, user
// code"), and user code can panic.

func safeOffer(h Handle, c ChannelIdentity) (accepted bool, panicked bool) {
	if h == nil {
		return true, false
	}
	defer func() {
		if r := recover(); r != nil {
			accepted = false
			panicked = true
		}
	}()
	return h.Offer(c), false
}

func safeWithdraw(h Handle, c ChannelIdentity) {
	if h == nil {
		return
	}
	defer func() { _ = recover() }()
	h.Withdraw(c)
}

func safeCommit(h Handle, c ChannelIdentity) {
	if h == nil {
		return
	}
	defer func() { _ = recover() }()
	h.Commit(c)
}
