package csp

import (
	"context"
	"sync"
)

// Scope is a frame in the task-local name registry: a named lookup table
// of channels, chained to a parent frame the way a lexical scope chains
// to its enclosing one. It rides along on context.Context, so it is
// automatically task-local and propagates to every goroutine a caller
// hands that ctx to — exactly the "async-aware by construction" property
// spec.md asks for, with no bespoke propagation machinery needed.
type Scope struct {
	parent   *Scope
	isolated bool

	mu      sync.Mutex
	entries map[string]scopeEntry
}

type scopeEntry struct {
	value any
	owned bool
}

// retirable is satisfied by *Channel[T] and *BroadcastChannel[T] alike
// (both export a Retire(bool) method); a scope doesn't need to know a
// registered entry's element type to clean it up on exit.
type retirable interface {
	Retire(bool)
}

type scopeKeyType struct{}

var scopeKey scopeKeyType

var (
	rootScope     *Scope
	rootScopeOnce sync.Once
)

// defaultRootScope returns the process-wide root scope frame, lazily
// constructing it on first use — the same singleton shape
// defaultExpirationManager() uses for the other process-wide resource.
// It is never isolated and has no parent, so a context that never called
// EnterScope still has somewhere for GetOrCreate/Inject to register names.
func defaultRootScope() *Scope {
	rootScopeOnce.Do(func() {
		rootScope = &Scope{entries: make(map[string]scopeEntry)}
	})
	return rootScope
}

// scopeFrom returns the Scope frame carried by ctx, falling back to the
// process-wide root scope if ctx carries none.
func scopeFrom(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey).(*Scope); ok && s != nil {
		return s
	}
	return defaultRootScope()
}

// EnterScope pushes a new frame onto the scope chain carried by ctx,
// returning the derived context and a leave function. Calling leave
// retires every channel this frame created via GetOrCreate (but not ones
// it only received via Inject/InjectFromParent, which it does not own).
//
// isolated marks this frame as a visibility boundary: GetOrCreate lookups
// that start inside it never continue past it into its parent's entries.
// InjectFromParent still reads the parent chain, so it is how an isolated
// frame imports a chosen binding.
func EnterScope(ctx context.Context, isolated bool) (context.Context, func()) {
	s := &Scope{
		parent:   scopeFrom(ctx),
		isolated: isolated,
		entries:  make(map[string]scopeEntry),
	}
	child := context.WithValue(ctx, scopeKey, s)

	leave := func() {
		s.mu.Lock()
		entries := s.entries
		s.entries = nil
		s.mu.Unlock()

		for _, e := range entries {
			if !e.owned {
				continue
			}
			if r, ok := e.value.(retirable); ok {
				r.Retire(true)
			}
		}
	}

	return child, leave
}

// GetOrCreate looks up a named channel visible from ctx's current scope,
// walking up the parent chain (stopping at the first isolated frame it
// encounters, inclusive), and creates it in the current scope with the
// given options if no visible binding exists.
func GetOrCreate[T any](ctx context.Context, name string, opts ...ChannelOption) (*Channel[T], error) {
	s := scopeFrom(ctx)

	for frame := s; frame != nil; {
		frame.mu.Lock()
		e, ok := frame.entries[name]
		frame.mu.Unlock()
		if ok {
			ch, ok2 := e.value.(*Channel[T])
			if !ok2 {
				return nil, ErrInvalidArgument
			}
			return ch, nil
		}
		if frame.isolated {
			break
		}
		frame = frame.parent
	}

	ch := NewChannel[T](opts...)
	s.mu.Lock()
	if s.entries == nil {
		s.mu.Unlock()
		return nil, ErrInvalidArgument
	}
	s.entries[name] = scopeEntry{value: ch, owned: true}
	s.mu.Unlock()
	return ch, nil
}

// Inject binds an existing channel to name in ctx's current scope. The
// scope does not take ownership: leaving the scope never retires an
// injected channel.
func Inject[T any](ctx context.Context, name string, ch *Channel[T]) error {
	s := scopeFrom(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		return ErrInvalidArgument
	}
	s.entries[name] = scopeEntry{value: ch, owned: false}
	return nil
}

// InjectFromParent copies a named binding visible from ctx's parent scope
// into ctx's current scope, without the caller needing to know the
// binding's element type. It does not transfer ownership: the copy is
// never retired when the current scope exits, even if the original was
// scope-owned.
func InjectFromParent(ctx context.Context, name string) error {
	s := scopeFrom(ctx)
	if s.parent == nil {
		return ErrInvalidArgument
	}

	for frame := s.parent; frame != nil; {
		frame.mu.Lock()
		e, ok := frame.entries[name]
		frame.mu.Unlock()
		if ok {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.entries == nil {
				return ErrInvalidArgument
			}
			s.entries[name] = scopeEntry{value: e.value, owned: false}
			return nil
		}
		if frame.isolated {
			break
		}
		frame = frame.parent
	}
	return ErrInvalidArgument
}
