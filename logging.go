package csp

// Logger is an optional diagnostic hook. A Channel reports through it
// (set with WithLogger) when a user-supplied Handle panics during an
// offer; the expiration manager reports a recovered panic from a timeout
// callback through its own Logger, which for the process-wide manager is
// always NoopLogger. Nothing else logs. Logger is modeled on the pluggable,
// noop-by-default backend pattern used for structured logging in
// joeycumines-go-utilpkg/eventloop/logging.go.
type Logger interface {
	Errorf(format string, args ...any)
}

// NoopLogger discards everything. It is the default Logger.
type NoopLogger struct{}

func (NoopLogger) Errorf(string, ...any) {}

var _ Logger = NoopLogger{}
