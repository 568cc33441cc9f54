package csp

import "github.com/ygrebnov/csp/metrics"

// ChannelOption configures a Channel at construction. Modeled on the
// teacher's functional Option pattern (options.go).
type ChannelOption func(*ChannelConfig)

// WithName sets the channel's diagnostic/scope name.
func WithName(name string) ChannelOption {
	return func(c *ChannelConfig) { c.Name = name }
}

// WithBuffer sets the buffer capacity B (0 = rendezvous).
func WithBuffer(n uint) ChannelOption {
	return func(c *ChannelConfig) { c.Buffer = n }
}

// WithMaxPendingReaders bounds the reader queue length; -1 = unbounded.
func WithMaxPendingReaders(n int) ChannelOption {
	return func(c *ChannelConfig) { c.MaxPendingReaders = n }
}

// WithMaxPendingWriters bounds the writer queue length; -1 = unbounded.
func WithMaxPendingWriters(n int) ChannelOption {
	return func(c *ChannelConfig) { c.MaxPendingWriters = n }
}

// WithReaderOverflow sets the eviction policy for reader-queue overflow.
func WithReaderOverflow(p OverflowPolicy) ChannelOption {
	return func(c *ChannelConfig) { c.ReaderOverflow = p }
}

// WithWriterOverflow sets the eviction policy for writer-queue overflow.
func WithWriterOverflow(p OverflowPolicy) ChannelOption {
	return func(c *ChannelConfig) { c.WriterOverflow = p }
}

// WithMetrics injects a metrics.Provider for channel instrumentation.
func WithMetrics(p metrics.Provider) ChannelOption {
	return func(c *ChannelConfig) {
		if p != nil {
			c.Metrics = p
		}
	}
}

// WithLogger injects a diagnostic Logger.
func WithLogger(l Logger) ChannelOption {
	return func(c *ChannelConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

func buildChannelConfig(opts []ChannelOption) (ChannelConfig, error) {
	cfg := defaultChannelConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if err := validateChannelConfig(&cfg); err != nil {
		return ChannelConfig{}, err
	}
	return cfg, nil
}
