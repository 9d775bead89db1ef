// File: queue/priority.go
// License: Apache-2.0

package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/nextgenrt/netkernel/message"
)

// PriorityQueue dequeues higher-category messages first. Ties between
// equal categories resolve FIFO (insertion order), matching the
// original PriorityCompare's unspecified-but-stable-in-practice
// behavior for equal priorities, made explicit here via a monotonic
// sequence number.
type PriorityQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	heap     priorityHeap
	seq      uint64
	shutdown bool
}

func NewPriorityQueue() *PriorityQueue {
	q := &PriorityQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

type priorityItem struct {
	msg      message.Message
	priority uint8
	seq      uint64
}

type priorityHeap []priorityItem

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority // max-heap on category
	}
	return h[i].seq < h[j].seq // FIFO among equal categories
}
func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)   { *h = append(*h, x.(priorityItem)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (q *PriorityQueue) Push(msg message.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return false
	}
	q.seq++
	heap.Push(&q.heap, priorityItem{msg: msg, priority: msg.Category(), seq: q.seq})
	q.notEmpty.Signal()
	return true
}

func (q *PriorityQueue) TryPop() (message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *PriorityQueue) popLocked() (message.Message, bool) {
	if q.heap.Len() == 0 {
		return nil, false
	}
	item := heap.Pop(&q.heap).(priorityItem)
	return item.msg, true
}

func (q *PriorityQueue) WaitPop(timeout time.Duration) (message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timeout <= 0 {
		for q.heap.Len() == 0 && !q.shutdown {
			q.notEmpty.Wait()
		}
		return q.popLocked()
	}

	deadline := time.Now().Add(timeout)
	for q.heap.Len() == 0 && !q.shutdown {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		waitOrTimeout(q.notEmpty, remaining)
	}
	return q.popLocked()
}

func (q *PriorityQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *PriorityQueue) Empty() bool { return q.Size() == 0 }

func (q *PriorityQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap = nil
}

func (q *PriorityQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return
	}
	q.shutdown = true
	q.notEmpty.Broadcast()
}

func (q *PriorityQueue) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shutdown
}
