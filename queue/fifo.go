// File: queue/fifo.go
// License: Apache-2.0

package queue

import (
	"container/list"
	"sync"
	"time"

	"github.com/nextgenrt/netkernel/message"
)

// FIFOQueue is the default bounded (or unbounded, when maxSize <= 0)
// message queue: a mutex-guarded linked list with two condition
// variables, one for waiting producers and one for waiting consumers.
// Grounded on the original DefaultMessageQueue (mutex + not_empty_/
// not_full_ condvars).
type FIFOQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    *list.List
	maxSize  int
	shutdown bool
}

// NewFIFOQueue builds a FIFO queue. maxSize <= 0 means unbounded.
func NewFIFOQueue(maxSize int) *FIFOQueue {
	q := &FIFOQueue{items: list.New(), maxSize: maxSize}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push blocks while the queue is full and not shut down. Returns false
// if the queue was (or became) shut down before the item could be
// pushed.
func (q *FIFOQueue) Push(msg message.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.full() && !q.shutdown {
		q.notFull.Wait()
	}
	if q.shutdown {
		return false
	}
	q.items.PushBack(msg)
	q.notEmpty.Signal()
	return true
}

func (q *FIFOQueue) full() bool {
	return q.maxSize > 0 && q.items.Len() >= q.maxSize
}

func (q *FIFOQueue) TryPop() (message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *FIFOQueue) popLocked() (message.Message, bool) {
	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	q.items.Remove(front)
	q.notFull.Signal()
	return front.Value.(message.Message), true
}

// WaitPop blocks until a message is available, timeout elapses, or the
// queue is shut down. timeout <= 0 waits indefinitely.
func (q *FIFOQueue) WaitPop(timeout time.Duration) (message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timeout <= 0 {
		for q.items.Len() == 0 && !q.shutdown {
			q.notEmpty.Wait()
		}
		return q.popLocked()
	}

	deadline := time.Now().Add(timeout)
	for q.items.Len() == 0 && !q.shutdown {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		waitOrTimeout(q.notEmpty, remaining)
	}
	return q.popLocked()
}

func (q *FIFOQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *FIFOQueue) Empty() bool { return q.Size() == 0 }

func (q *FIFOQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Init()
	q.notFull.Broadcast()
}

func (q *FIFOQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return
	}
	q.shutdown = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *FIFOQueue) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shutdown
}
