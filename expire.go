package csp

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// timerEntry is one registered deadline callback. Deadlines are coalesced
// per spec.md §4.6 by simply letting the heap hold one entry per
// registration; repeated registrations for the same logical wait are the
// caller's responsibility to cancel() before re-registering (Channel does
// this when a pending entry is matched, reserved, evicted or retired; an
// entry withdrawn by cancelEntry keeps its registration, which later fires
// as a no-op because the entry is no longer queued).
type timerEntry struct {
	id       uint64
	deadline time.Time
	callback func()
	index    int
}

// timerHeap is a container/heap.Interface min-heap ordered by deadline.
// Modeled on the timer heap in joeycumines-go-utilpkg/eventloop/loop.go.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// expirationManager is a process-wide min-heap of (deadline, callback). A
// single background worker sleeps until the earliest deadline and invokes
// its callback. Bursts of deadlines that coalesce onto the same instant
// are fired with bounded concurrency via a weighted semaphore, grounded on
// golang.org/x/sync/semaphore (see other_examples' vendored copy of that
// package, and its direct use in vitess' message_manager.go) — this
// bounds goroutine fan-out when many entries expire together instead of
// spawning one per callback unconditionally.
type expirationManager struct {
	mu      sync.Mutex
	heap    timerHeap
	byID    map[uint64]*timerEntry
	wake    chan struct{}
	closeCh chan struct{}
	wg      sync.WaitGroup
	sem     *semaphore.Weighted
	nextID  uint64
	logger  Logger
}

const expirationFanoutLimit = 64

func newExpirationManager(logger Logger) *expirationManager {
	if logger == nil {
		logger = NoopLogger{}
	}
	m := &expirationManager{
		byID:    make(map[uint64]*timerEntry),
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		sem:     semaphore.NewWeighted(expirationFanoutLimit),
		logger:  logger,
	}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *expirationManager) register(deadline time.Time, cb func()) uint64 {
	m.mu.Lock()
	id := atomic.AddUint64(&m.nextID, 1)
	e := &timerEntry{id: id, deadline: deadline, callback: cb}
	m.byID[id] = e
	heap.Push(&m.heap, e)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return id
}

// cancel removes a registration before it fires. A miss (already fired or
// never registered) is a silent no-op: deregistering an already-settled
// entry is expected on every successful match.
func (m *expirationManager) cancel(id uint64) {
	if id == 0 {
		return
	}
	m.mu.Lock()
	e, ok := m.byID[id]
	if ok {
		heap.Remove(&m.heap, e.index)
		delete(m.byID, id)
	}
	m.mu.Unlock()
}

func (m *expirationManager) run() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		if len(m.heap) == 0 {
			m.mu.Unlock()
			select {
			case <-m.wake:
				continue
			case <-m.closeCh:
				return
			}
		}

		earliest := m.heap[0]
		now := time.Now()
		if earliest.deadline.After(now) {
			wait := earliest.deadline.Sub(now)
			m.mu.Unlock()
			t := time.NewTimer(wait)
			select {
			case <-t.C:
				continue
			case <-m.wake:
				t.Stop()
				continue
			case <-m.closeCh:
				t.Stop()
				return
			}
		}

		e := heap.Pop(&m.heap).(*timerEntry)
		delete(m.byID, e.id)
		m.mu.Unlock()

		m.fire(e.callback)
	}
}

func (m *expirationManager) fire(cb func()) {
	ctxErr := m.sem.Acquire(noCancelCtx{}, 1)
	if ctxErr != nil {
		// noCancelCtx never cancels; Acquire can only fail here if n >
		// limit, which never happens for weight 1.
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				m.logger.Errorf("csp: expiration callback panicked: %v", r)
			}
		}()
		cb()
	}()
}

// shutdown stops the background worker and waits for in-flight callbacks.
// Modeled on the teacher's lifecycleCoordinator: cancel, then wait.
func (m *expirationManager) shutdown() {
	close(m.closeCh)
	m.wg.Wait()
}

// noCancelCtx is a minimal context.Context that is never done, used to
// call semaphore.Acquire without pulling a cancellation source into the
// expiration manager (it has none of its own to offer).
type noCancelCtx struct{}

func (noCancelCtx) Deadline() (time.Time, bool) { return time.Time{}, false }
func (noCancelCtx) Done() <-chan struct{}        { return nil }
func (noCancelCtx) Err() error                   { return nil }
func (noCancelCtx) Value(any) any                { return nil }

var (
	defaultExpMgr     *expirationManager
	defaultExpMgrOnce sync.Once
	defaultExpMgrMu   sync.Mutex
)

// defaultExpirationManager returns the process-wide expiration manager,
// lazily constructing it on first use.
func defaultExpirationManager() *expirationManager {
	defaultExpMgrOnce.Do(func() {
		defaultExpMgrMu.Lock()
		defer defaultExpMgrMu.Unlock()
		if defaultExpMgr == nil {
			defaultExpMgr = newExpirationManager(NoopLogger{})
		}
	})
	return defaultExpMgr
}

// ShutdownExpirationManager stops the process-wide expiration manager's
// background worker and allows a fresh one to be created on next use.
// Exposed for explicit shutdown in tests (spec.md §9's "Global state"
// design note); production code does not normally need to call this.
func ShutdownExpirationManager() {
	defaultExpMgrMu.Lock()
	m := defaultExpMgr
	defaultExpMgr = nil
	defaultExpMgrMu.Unlock()
	if m != nil {
		m.shutdown()
	}
	defaultExpMgrOnce = sync.Once{}
}
