package csp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroadcastChannel_DeliversToAllParkedSubscribers(t *testing.T) {
	bc := NewBroadcastChannel[string](2, 2, WithName("events"))

	sub1 := bc.Subscribe()
	sub2 := bc.Subscribe()

	var wg sync.WaitGroup
	got := make([]string, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := sub1.Read(context.Background())
		require.NoError(t, err)
		got[0] = v
	}()
	go func() {
		defer wg.Done()
		v, err := sub2.Read(context.Background())
		require.NoError(t, err)
		got[1] = v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, bc.Write(context.Background(), "hello"))
	wg.Wait()

	require.Equal(t, []string{"hello", "hello"}, got)
}

func TestBroadcastChannel_WriteWaitsForInitialBarrier(t *testing.T) {
	bc := NewBroadcastChannel[int](1, 1, WithName("gated"))

	writeDone := make(chan error, 1)
	go func() { writeDone <- bc.Write(context.Background(), 1) }()

	select {
	case <-writeDone:
		t.Fatal("write completed before any subscriber joined")
	case <-time.After(20 * time.Millisecond):
	}

	sub := bc.Subscribe()
	readDone := make(chan int, 1)
	go func() {
		v, err := sub.Read(context.Background())
		require.NoError(t, err)
		readDone <- v
	}()

	require.NoError(t, <-writeDone)
	require.Equal(t, 1, <-readDone)
}

// TestBroadcastChannel_BarrierUnblocksOnThirdSubscriber covers the literal
// "broadcast barrier" scenario: initialBarrier=3, two readers attach and
// park first (the writer blocks on the gate), then a third attaches and
// parks; the write must unblock only then, and all three must receive
// the identical value atomically.
func TestBroadcastChannel_BarrierUnblocksOnThirdSubscriber(t *testing.T) {
	bc := NewBroadcastChannel[int](3, 3, WithName("barrier"))

	sub1 := bc.Subscribe()
	sub2 := bc.Subscribe()

	writeDone := make(chan error, 1)
	go func() { writeDone <- bc.Write(context.Background(), 99) }()

	readDone1 := make(chan int, 1)
	readDone2 := make(chan int, 1)
	go func() {
		v, err := sub1.Read(context.Background())
		require.NoError(t, err)
		readDone1 <- v
	}()
	go func() {
		v, err := sub2.Read(context.Background())
		require.NoError(t, err)
		readDone2 <- v
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-writeDone:
		t.Fatal("write unblocked before the third subscriber attached")
	default:
	}

	sub3 := bc.Subscribe()
	readDone3 := make(chan int, 1)
	go func() {
		v, err := sub3.Read(context.Background())
		require.NoError(t, err)
		readDone3 <- v
	}()

	require.NoError(t, <-writeDone)
	require.Equal(t, 99, <-readDone1)
	require.Equal(t, 99, <-readDone2)
	require.Equal(t, 99, <-readDone3)
}

func TestBroadcastChannel_UnsubscribeStopsDelivery(t *testing.T) {
	bc := NewBroadcastChannel[int](0, 0, WithName("optional"))
	sub := bc.Subscribe()
	sub.Unsubscribe()
	require.True(t, sub.ch.IsRetired())
}
