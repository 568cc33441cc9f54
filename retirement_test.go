package csp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetire_GracefulDrainsThenFails(t *testing.T) {
	ch := NewChannel[int](WithBuffer(1))
	require.NoError(t, ch.Write(context.Background(), 1))

	readerErr := make(chan error, 1)
	go func() {
		_, err := ch.Read(context.Background())
		readerErr <- err
	}()
	require.NoError(t, <-readerErr)

	ch.Retire(false)
	require.True(t, ch.IsRetired())

	// Nothing left buffered or blocked: a fresh read fails immediately
	// instead of waiting for a write that retirement will never admit.
	_, err := ch.Read(context.Background())
	require.ErrorIs(t, err, ErrRetired)

	err = ch.Write(context.Background(), 2)
	require.ErrorIs(t, err, ErrRetired)
}

func TestRetire_ImmediateDiscardsBlockedParties(t *testing.T) {
	ch := NewChannel[int]()

	readerErr := make(chan error, 1)
	go func() {
		_, err := ch.Read(context.Background())
		readerErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	ch.Retire(true)
	require.ErrorIs(t, <-readerErr, ErrRetired)
	require.True(t, ch.IsRetired())
}

func TestRetire_IdempotentOnAlreadyRetired(t *testing.T) {
	ch := NewChannel[int]()
	ch.Retire(true)
	require.NotPanics(t, func() { ch.Retire(true) })
	require.NotPanics(t, func() { ch.Retire(false) })
	require.True(t, ch.IsRetired())
}
