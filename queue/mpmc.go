// File: queue/mpmc.go
// License: Apache-2.0
//
// MPMCQueue is a bounded multi-producer/multi-consumer ring buffer using
// the Vyukov per-cell sequence-number scheme. Grounded on the teacher's
// core/concurrency/ring.go RingBuffer[T], generalized from the generic
// cell type to message.Message and given blocking WaitPop/Shutdown
// semantics the original Ring type did not need. head/tail are kept on
// separate cache lines with golang.org/x/sys/cpu.CacheLinePad, the same
// dependency internal/concurrency/scheduler.go reaches for to reason
// about cache topology, rather than a hand-picked byte count.

package queue

import (
	"sync/atomic"
	"time"

	"github.com/nextgenrt/netkernel/message"
	"golang.org/x/sys/cpu"
)

type mpmcCell struct {
	sequence atomic.Uint64
	data     message.Message
}

type MPMCQueue struct {
	head     uint64
	_        cpu.CacheLinePad
	tail     uint64
	_        cpu.CacheLinePad
	mask     uint64
	cells    []mpmcCell
	shutdown atomic.Bool
	wake     chan struct{}
}

// NewMPMCQueue allocates a bounded ring rounded up to the next power of
// two, minimum 2.
func NewMPMCQueue(size uint64) *MPMCQueue {
	if size < 2 {
		size = 2
	}
	if size&(size-1) != 0 {
		n := size - 1
		n |= n >> 1
		n |= n >> 2
		n |= n >> 4
		n |= n >> 8
		n |= n >> 16
		n |= n >> 32
		size = n + 1
	}
	q := &MPMCQueue{mask: size - 1, cells: make([]mpmcCell, size), wake: make(chan struct{}, 1)}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

func (q *MPMCQueue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Push enqueues msg, returning false if full or shut down.
func (q *MPMCQueue) Push(msg message.Message) bool {
	if q.shutdown.Load() {
		return false
	}
	for {
		tail := atomic.LoadUint64(&q.tail)
		cell := &q.cells[tail&q.mask]
		seq := cell.sequence.Load()
		dif := int64(seq) - int64(tail)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				cell.data = msg
				cell.sequence.Store(tail + 1)
				q.notify()
				return true
			}
		case dif < 0:
			return false // full
		default:
			// another producer advanced tail; retry
		}
	}
}

// TryPop removes and returns the oldest message, or false if empty.
func (q *MPMCQueue) TryPop() (message.Message, bool) {
	for {
		head := atomic.LoadUint64(&q.head)
		cell := &q.cells[head&q.mask]
		seq := cell.sequence.Load()
		dif := int64(seq) - int64(head+1)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
				item := cell.data
				cell.data = nil
				cell.sequence.Store(head + q.mask + 1)
				return item, true
			}
		case dif < 0:
			return nil, false // empty
		default:
			// another consumer advanced head; retry
		}
	}
}

func (q *MPMCQueue) WaitPop(timeout time.Duration) (message.Message, bool) {
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

func (q *MPMCQueue) Size() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	return int(tail - head)
}

func (q *MPMCQueue) Empty() bool { return q.Size() == 0 }

func (q *MPMCQueue) Cap() int { return len(q.cells) }

// Clear drains all currently visible entries. Concurrent producers
// racing with Clear may still land items after it returns.
func (q *MPMCQueue) Clear() {
	for {
		if _, ok := q.TryPop(); !ok {
			return
		}
	}
}

func (q *MPMCQueue) Shutdown() {
	if q.shutdown.CompareAndSwap(false, true) {
		q.notify()
	}
}

func (q *MPMCQueue) IsShutdown() bool { return q.shutdown.Load() }
