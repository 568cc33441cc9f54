package csp

import (
	"errors"
	"fmt"
	"time"
)

// Namespace prefixes every sentinel error message, mirroring how the
// teacher task-pool library tags its own errors.
const Namespace = "csp"

var (
	// ErrRetired is returned by an operation on a retired channel, or by a
	// pending entry that was still queued when the channel fully retired.
	ErrRetired = errors.New(Namespace + ": channel retired")

	// ErrTimeout is returned when an operation's deadline elapsed before a
	// match could be made.
	ErrTimeout = errors.New(Namespace + ": operation timed out")

	// ErrCancelled is returned when an operation's own offer handle
	// withdrew it — typically a losing selector branch, or an overflow
	// victim under drop-oldest/drop-newest/drop-random.
	ErrCancelled = errors.New(Namespace + ": operation cancelled")

	// ErrOverflow is returned when a pending-queue bound is exceeded under
	// the reject overflow policy.
	ErrOverflow = errors.New(Namespace + ": pending queue overflow")

	// ErrInvalidArgument is returned for a pending bound below -1, an empty
	// channel list passed to ReadFromAny/WriteToAny, a scope name already
	// bound to a different type, a scope that has been left, or an unknown
	// name passed to InjectFromParent.
	ErrInvalidArgument = errors.New(Namespace + ": invalid argument")
)

// Op identifies which channel operation produced an error.
type Op string

const (
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpRetire Op = "retire"
	OpSelect Op = "select"
	OpInject Op = "inject"
	OpCreate Op = "create"
)

// OpError tags a sentinel error with the channel and operation that
// produced it, so callers can recover diagnostic context via errors.As
// without losing errors.Is compatibility with the underlying sentinel.
//
// Modeled on the teacher's taskTaggedError/TaskMetaError pair.
type OpError struct {
	Channel  string
	Op       Op
	Deadline time.Time
	Err      error
}

func newOpError(channel string, op Op, deadline time.Time, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Channel: channel, Op: op, Deadline: deadline, Err: err}
}

func (e *OpError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s(%s): %v", e.Op, e.Channel, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// ChannelName returns the name of the channel the error originated from,
// and whether one was set (unnamed channels report ok=false).
func (e *OpError) ChannelName() (string, bool) {
	if e.Channel == "" {
		return "", false
	}
	return e.Channel, true
}
