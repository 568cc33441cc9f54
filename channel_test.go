package csp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannel_RendezvousPingPong(t *testing.T) {
	ch := NewChannel[int](WithName("pingpong"))

	var got int
	var readErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		got, readErr = ch.Read(context.Background())
	}()

	// Give the reader a moment to park before writing, so this genuinely
	// exercises the rendezvous handshake rather than racing it.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ch.Write(context.Background(), 42))

	<-done
	require.NoError(t, readErr)
	require.Equal(t, 42, got)
	require.Equal(t, uint64(1), ch.LastReadTick())
	require.Equal(t, uint64(1), ch.LastWriteTick())
}

func TestChannel_BufferedWriteDoesNotBlock(t *testing.T) {
	ch := NewChannel[string](WithBuffer(2))

	require.NoError(t, ch.Write(context.Background(), "a"))
	require.NoError(t, ch.Write(context.Background(), "b"))

	v, err := ch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", v)

	v, err = ch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", v)
}

func TestChannel_BufferedRetireDrainsTail(t *testing.T) {
	// Buffer of 2, two values already buffered, one writer blocked behind
	// them: total pending writes = 3, so retireCountdown = 3, and all
	// three values must still be delivered before the channel closes.
	ch := NewChannel[int](WithBuffer(2))
	require.NoError(t, ch.Write(context.Background(), 1))
	require.NoError(t, ch.Write(context.Background(), 2))

	writeDone := make(chan error, 1)
	go func() { writeDone <- ch.Write(context.Background(), 3) }()
	time.Sleep(10 * time.Millisecond)

	ch.Retire(false)
	require.True(t, ch.IsRetired())

	v, err := ch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = ch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, v)

	require.NoError(t, <-writeDone)

	v, err = ch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = ch.Read(context.Background())
	require.ErrorIs(t, err, ErrRetired)
}

func TestChannel_ImmediateRetireRejectsEverything(t *testing.T) {
	ch := NewChannel[int]()
	ch.Retire(true)

	err := ch.Write(context.Background(), 1)
	require.ErrorIs(t, err, ErrRetired)

	_, err = ch.Read(context.Background())
	require.ErrorIs(t, err, ErrRetired)
}

func TestChannel_TimeoutRace(t *testing.T) {
	ch := NewChannel[int]()

	_, err := ch.Read(context.Background(), WithDeadline(In(15*time.Millisecond)))
	require.ErrorIs(t, err, ErrTimeout)

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	require.Equal(t, OpRead, opErr.Op)
}

func TestChannel_ContextCancellationUnblocksReader(t *testing.T) {
	ch := NewChannel[int]()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := ch.Read(ctx)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)
}

func TestChannel_WriterOverflowReject(t *testing.T) {
	ch := NewChannel[int](WithMaxPendingWriters(1))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ch.Write(context.Background(), 1)
	}()
	time.Sleep(10 * time.Millisecond)

	err := ch.Write(context.Background(), 2)
	require.ErrorIs(t, err, ErrOverflow)

	v, rerr := ch.Read(context.Background())
	require.NoError(t, rerr)
	require.Equal(t, 1, v)
	wg.Wait()
}

func TestChannel_WriterOverflowDropOldest(t *testing.T) {
	ch := NewChannel[int](WithMaxPendingWriters(1), WithWriterOverflow(OverflowDropOldest))

	firstErr := make(chan error, 1)
	go func() { firstErr <- ch.Write(context.Background(), 1) }()
	time.Sleep(10 * time.Millisecond)

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		require.NoError(t, ch.Write(context.Background(), 2))
	}()
	time.Sleep(10 * time.Millisecond)

	v, err := ch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, v)

	require.ErrorIs(t, <-firstErr, ErrCancelled)
	<-secondDone
}
