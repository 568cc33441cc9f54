package csp

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpirationManager_FiresInDeadlineOrder(t *testing.T) {
	m := newExpirationManager(NoopLogger{})
	defer m.shutdown()

	var order []int32
	done := make(chan struct{}, 3)
	record := func(n int32) func() {
		return func() {
			order = append(order, n)
			done <- struct{}{}
		}
	}

	now := time.Now()
	m.register(now.Add(30*time.Millisecond), record(3))
	m.register(now.Add(10*time.Millisecond), record(1))
	m.register(now.Add(20*time.Millisecond), record(2))

	for i := 0; i < 3; i++ {
		<-done
	}
	require.Equal(t, []int32{1, 2, 3}, order)
}

func TestExpirationManager_CancelPreventsFiring(t *testing.T) {
	m := newExpirationManager(NoopLogger{})
	defer m.shutdown()

	var fired int32
	id := m.register(time.Now().Add(15*time.Millisecond), func() {
		atomic.AddInt32(&fired, 1)
	})
	m.cancel(id)

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestChannel_ReadDeadlineTimesOutIndependentlyOfContext(t *testing.T) {
	ch := NewChannel[int]()
	start := time.Now()
	_, err := ch.Read(context.Background(), WithDeadline(In(20*time.Millisecond)))
	require.ErrorIs(t, err, ErrTimeout)
	require.WithinDuration(t, start.Add(20*time.Millisecond), time.Now(), 100*time.Millisecond)
}
