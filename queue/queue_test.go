package queue_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/queue"
	"github.com/stretchr/testify/require"
)

func newMsg(category message.Category) message.Message {
	return message.NewBase(category, 1)
}

func TestFIFOQueuePreservesOrder(t *testing.T) {
	q := queue.NewFIFOQueue(0)
	for i := message.Category(0); i < 5; i++ {
		require.True(t, q.Push(newMsg(i)))
	}
	for i := message.Category(0); i < 5; i++ {
		m, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, i, m.Category())
	}
	require.True(t, q.Empty())
}

func TestFIFOQueueBoundedBlocksUntilRoom(t *testing.T) {
	q := queue.NewFIFOQueue(1)
	require.True(t, q.Push(newMsg(1)))

	done := make(chan bool, 1)
	go func() {
		done <- q.Push(newMsg(2))
	}()

	select {
	case <-done:
		t.Fatal("push should have blocked while queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := q.TryPop()
	require.True(t, ok)

	select {
	case result := <-done:
		require.True(t, result)
	case <-time.After(time.Second):
		t.Fatal("push never unblocked after room freed")
	}
}

func TestFIFOQueueWaitPopTimesOut(t *testing.T) {
	q := queue.NewFIFOQueue(0)
	_, ok := q.WaitPop(20 * time.Millisecond)
	require.False(t, ok)
}

func TestFIFOQueueShutdownWakesWaiters(t *testing.T) {
	q := queue.NewFIFOQueue(0)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.WaitPop(0)
		done <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitPop never woke after Shutdown")
	}
	require.True(t, q.IsShutdown())
}

func TestPriorityQueueOrdersByCategoryDescending(t *testing.T) {
	q := queue.NewPriorityQueue()
	require.True(t, q.Push(newMsg(1)))
	require.True(t, q.Push(newMsg(5)))
	require.True(t, q.Push(newMsg(3)))

	first, _ := q.TryPop()
	require.Equal(t, message.Category(5), first.Category())
	second, _ := q.TryPop()
	require.Equal(t, message.Category(3), second.Category())
	third, _ := q.TryPop()
	require.Equal(t, message.Category(1), third.Category())
}

func TestPriorityQueueTiesAreFIFO(t *testing.T) {
	q := queue.NewPriorityQueue()
	for i := 0; i < 3; i++ {
		m := message.NewBase(2, message.ID(i))
		require.True(t, q.Push(m))
	}
	for i := 0; i < 3; i++ {
		m, ok := q.TryPop()
		require.True(t, ok)
		require.Equal(t, message.ID(i), m.ID())
	}
}

func TestLockFreeQueueSPSCRoundTrip(t *testing.T) {
	q := queue.NewLockFreeQueue(1024)
	const n = 20000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !q.Push(message.NewBase(0, message.ID(i%65536))) {
			}
		}
	}()

	received := 0
	go func() {
		defer wg.Done()
		for received < n {
			if _, ok := q.WaitPop(100 * time.Millisecond); ok {
				received++
			}
		}
	}()

	wg.Wait()
	require.Equal(t, n, received)
}

func TestMPMCQueueConcurrentProducersConsumers(t *testing.T) {
	q := queue.NewMPMCQueue(1024)
	const producers = 8
	const perProducer = 2000
	const total = producers * perProducer

	var produced sync.WaitGroup
	produced.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer produced.Done()
			for i := 0; i < perProducer; i++ {
				for !q.Push(message.NewBase(0, 0)) {
				}
			}
		}()
	}

	var consumedCount atomic.Int64
	var consumed sync.WaitGroup
	consumed.Add(4)
	for c := 0; c < 4; c++ {
		go func() {
			defer consumed.Done()
			for {
				if _, ok := q.WaitPop(50 * time.Millisecond); ok {
					consumedCount.Add(1)
					continue
				}
				if consumedCount.Load() >= int64(total) {
					return
				}
			}
		}()
	}

	produced.Wait()
	consumed.Wait()
	require.Equal(t, int64(total), consumedCount.Load())
	require.True(t, q.Empty())
}

func TestMPMCQueueRejectsPushAfterShutdown(t *testing.T) {
	q := queue.NewMPMCQueue(4)
	q.Shutdown()
	require.False(t, q.Push(newMsg(1)))
}
