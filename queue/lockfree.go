// File: queue/lockfree.go
// License: Apache-2.0
//
// LockFreeQueue is a single-producer/single-consumer ring buffer using
// only atomic loads/stores (no CAS, since there is exactly one writer
// of each index). Grounded on the teacher's
// internal/concurrency/lock_free_queue.go.

package queue

import (
	"sync/atomic"
	"time"

	"github.com/nextgenrt/netkernel/message"
)

type LockFreeQueue struct {
	mask     uint64
	entries  []message.Message
	head     uint64
	tail     uint64
	shutdown atomic.Bool
	wake     chan struct{}
}

// NewLockFreeQueue allocates an SPSC ring whose capacity is rounded up
// to the next power of two.
func NewLockFreeQueue(capacity int) *LockFreeQueue {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &LockFreeQueue{
		mask:    uint64(size - 1),
		entries: make([]message.Message, size),
		wake:    make(chan struct{}, 1),
	}
}

// Push enqueues msg. Returns false if full or shut down. Only safe to
// call from a single producer goroutine.
func (q *LockFreeQueue) Push(msg message.Message) bool {
	if q.shutdown.Load() {
		return false
	}
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail-head >= uint64(len(q.entries)) {
		return false
	}
	q.entries[tail&q.mask] = msg
	atomic.StoreUint64(&q.tail, tail+1)
	q.notify()
	return true
}

func (q *LockFreeQueue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the oldest message. Only safe to call from
// a single consumer goroutine.
func (q *LockFreeQueue) TryPop() (message.Message, bool) {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head >= tail {
		return nil, false
	}
	item := q.entries[head&q.mask]
	q.entries[head&q.mask] = nil
	atomic.StoreUint64(&q.head, head+1)
	return item, true
}

// WaitPop polls TryPop, parking on the wake channel between attempts,
// up to timeout. timeout <= 0 waits indefinitely.
func (q *LockFreeQueue) WaitPop(timeout time.Duration) (message.Message, bool) {
	if msg, ok := q.TryPop(); ok {
		return msg, true
	}
	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}
	for {
		if q.shutdown.Load() {
			return q.TryPop()
		}
		var waitFor time.Duration
		if hasDeadline {
			waitFor = time.Until(deadline)
			if waitFor <= 0 {
				return q.TryPop()
			}
		} else {
			waitFor = 50 * time.Millisecond
		}
		select {
		case <-q.wake:
		case <-time.After(waitFor):
		}
		if msg, ok := q.TryPop(); ok {
			return msg, true
		}
		if hasDeadline && time.Now().After(deadline) {
			return nil, false
		}
	}
}

func (q *LockFreeQueue) Size() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	return int(tail - head)
}

func (q *LockFreeQueue) Empty() bool { return q.Size() == 0 }

// Clear drains all currently visible entries. Not safe to call
// concurrently with Push/TryPop from other goroutines.
func (q *LockFreeQueue) Clear() {
	for {
		if _, ok := q.TryPop(); !ok {
			return
		}
	}
}

func (q *LockFreeQueue) Shutdown() {
	if q.shutdown.CompareAndSwap(false, true) {
		q.notify()
	}
}

func (q *LockFreeQueue) IsShutdown() bool { return q.shutdown.Load() }
