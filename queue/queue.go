// File: queue/queue.go
// Package queue provides the message queue variants: a bounded/unbounded
// FIFO, a priority queue, an SPSC lock-free ring, and an MPMC lock-free
// ring. All implement the same MessageQueue contract so a Service can be
// built against the interface and swap implementations freely.
// License: Apache-2.0

package queue

import (
	"time"

	"github.com/nextgenrt/netkernel/message"
)

// MessageQueue is the common surface every queue variant exposes.
// Push/Pop semantics, blocking behavior, and ordering guarantees differ
// per implementation; see each type's doc comment.
type MessageQueue interface {
	// Push enqueues msg. Blocking implementations may wait for room;
	// lock-free ones return false immediately when full.
	Push(msg message.Message) bool
	// TryPop returns immediately: a message and true, or false if empty.
	TryPop() (message.Message, bool)
	// WaitPop blocks up to timeout for a message. timeout <= 0 waits
	// forever until Shutdown.
	WaitPop(timeout time.Duration) (message.Message, bool)
	Size() int
	Empty() bool
	Clear()
	// Shutdown wakes any blocked WaitPop callers and makes subsequent
	// Push calls no-ops. Idempotent.
	Shutdown()
	IsShutdown() bool
}

var (
	_ MessageQueue = (*FIFOQueue)(nil)
	_ MessageQueue = (*PriorityQueue)(nil)
	_ MessageQueue = (*LockFreeQueue)(nil)
	_ MessageQueue = (*MPMCQueue)(nil)
)
