package csp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScope_GetOrCreateIsMemoizedWithinFrame(t *testing.T) {
	ctx, leave := EnterScope(context.Background(), false)
	defer leave()

	a, err := GetOrCreate[int](ctx, "counters")
	require.NoError(t, err)
	b, err := GetOrCreate[int](ctx, "counters")
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestScope_ChildSeesParentBindingUnlessIsolated(t *testing.T) {
	parentCtx, leaveParent := EnterScope(context.Background(), false)
	defer leaveParent()
	parentCh, err := GetOrCreate[string](parentCtx, "shared")
	require.NoError(t, err)

	childCtx, leaveChild := EnterScope(parentCtx, false)
	defer leaveChild()
	childCh, err := GetOrCreate[string](childCtx, "shared")
	require.NoError(t, err)
	require.Same(t, parentCh, childCh)

	isolatedCtx, leaveIsolated := EnterScope(parentCtx, true)
	defer leaveIsolated()
	isolatedCh, err := GetOrCreate[string](isolatedCtx, "shared")
	require.NoError(t, err)
	require.NotSame(t, parentCh, isolatedCh)
}

func TestScope_LeaveRetiresOwnedChannelsOnly(t *testing.T) {
	ctx, leave := EnterScope(context.Background(), false)

	owned, err := GetOrCreate[int](ctx, "owned")
	require.NoError(t, err)

	external := NewChannel[int](WithName("external"))
	require.NoError(t, Inject(ctx, "external", external))

	leave()

	require.True(t, owned.IsRetired())
	require.False(t, external.IsRetired())
}

func TestScope_InjectFromParent(t *testing.T) {
	parentCtx, leaveParent := EnterScope(context.Background(), false)
	defer leaveParent()
	parentCh, err := GetOrCreate[int](parentCtx, "value")
	require.NoError(t, err)

	childCtx, leaveChild := EnterScope(parentCtx, false)
	defer leaveChild()

	require.NoError(t, InjectFromParent(childCtx, "value"))
	childCh, err := GetOrCreate[int](childCtx, "value")
	require.NoError(t, err)
	require.Same(t, parentCh, childCh)
}

func TestScope_GetOrCreateWithoutScopeUsesRootScope(t *testing.T) {
	a, err := GetOrCreate[int](context.Background(), "root-scope-orphan")
	require.NoError(t, err)
	b, err := GetOrCreate[int](context.Background(), "root-scope-orphan")
	require.NoError(t, err)
	require.Same(t, a, b)
}
