package csp

// OpOption configures a single Read/Write/Select call. Modeled on the
// ChannelOption/OpOption split the same way the teacher separates
// construction-time Config from per-call behavior.
type OpOption func(*opConfig)

type opConfig struct {
	deadline Deadline
	handle   Handle
}

func defaultOpConfig() opConfig { return opConfig{} }

func buildOpConfig(opts []OpOption) opConfig {
	cfg := defaultOpConfig()
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(&cfg)
	}
	return cfg
}

// WithDeadline attaches an explicit Deadline to a Read/Write/Select call,
// independent of (and in addition to) any deadline carried by the call's
// ctx. Whichever elapses first wins.
func WithDeadline(d Deadline) OpOption {
	return func(c *opConfig) { c.deadline = d }
}

// WithHandle attaches a caller-supplied offer Handle to a Read/Write call,
// so the caller participates directly in the two-phase offer/commit
// handshake instead of the kernel supplying the null handle on its behalf.
// This is what lets external code build its own atomic multi-channel
// protocols on top of a single Channel the same way Selector and
// BroadcastChannel do internally.
func WithHandle(h Handle) OpOption {
	return func(c *opConfig) { c.handle = h }
}
