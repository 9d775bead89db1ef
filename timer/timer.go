// File: timer/timer.go
// Package timer implements a monotonic-clock timer scheduler with
// grouping support, grounded on the shape of the teacher's (incomplete)
// internal/concurrency/scheduler.go -- heap + mutex + notify/stop
// channels -- filled in with the group semantics from the original
// source's src/utils/timer_manager.cpp.
// License: Apache-2.0

package timer

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/nextgenrt/netkernel/errs"
	"github.com/nextgenrt/netkernel/logging"
)

// TaskID identifies a scheduled timer task.
type TaskID uint64

// GroupID identifies a collection of timer tasks that can be cancelled
// together.
type GroupID uint64

type task struct {
	id        TaskID
	nextRunAt time.Time
	interval  time.Duration
	repeat    bool
	callback  func()
	group     GroupID
	hasGroup  bool
	index     int // heap.Interface bookkeeping
}

type taskHeap []*task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].nextRunAt.Before(h[j].nextRunAt) }
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler runs timer tasks on a single worker goroutine, ordered by
// next-run time on a min-heap. Tasks are cancelled lazily: a cancelled
// task is removed from the id->task map but may linger on the heap
// until it is popped and discovered missing, avoiding an O(n) heap
// search on every Cancel.
type Scheduler struct {
	mu      sync.Mutex
	heap    taskHeap
	tasks   map[TaskID]*task
	groups  map[GroupID]map[TaskID]struct{}
	nextID  TaskID
	notify  chan struct{}
	stop    chan struct{}
	stopped bool
	wg      sync.WaitGroup
	log     logging.Sink
}

// New starts a Scheduler's worker goroutine and returns it ready to use.
// A panicking callback is recovered and logged through a no-op sink by
// default; call SetLogger to route those logs somewhere real.
func New() *Scheduler {
	s := &Scheduler{
		tasks:  make(map[TaskID]*task),
		groups: make(map[GroupID]map[TaskID]struct{}),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		log:    logging.Nop(),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// SetLogger routes recovered-panic logs to log instead of the default
// no-op sink. Safe to call before or after the scheduler has started.
func (s *Scheduler) SetLogger(log logging.Sink) {
	if log == nil {
		log = logging.Nop()
	}
	s.mu.Lock()
	s.log = log
	s.mu.Unlock()
}

func (s *Scheduler) recoverCallback() {
	if r := recover(); r != nil {
		s.mu.Lock()
		log := s.log
		s.mu.Unlock()
		log.Error("recovered from panic in timer callback", logging.String("panic", fmt.Sprint(r)))
	}
}

func (s *Scheduler) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Once schedules callback to run once after delay.
func (s *Scheduler) Once(delay time.Duration, callback func()) TaskID {
	return s.schedule(delay, 0, false, callback)
}

// Repeat schedules callback to run every interval, starting after the
// first interval elapses.
func (s *Scheduler) Repeat(interval time.Duration, callback func()) TaskID {
	return s.schedule(interval, interval, true, callback)
}

func (s *Scheduler) schedule(delay, interval time.Duration, repeat bool, callback func()) TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	t := &task{
		id:        id,
		nextRunAt: time.Now().Add(delay),
		interval:  interval,
		repeat:    repeat,
		callback:  callback,
	}
	s.tasks[id] = t
	heap.Push(&s.heap, t)
	s.wake()
	return id
}

// Cancel removes a task. Returns false if the task does not exist.
func (s *Scheduler) Cancel(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

func (s *Scheduler) cancelLocked(id TaskID) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	delete(s.tasks, id)
	if t.hasGroup {
		if members, ok := s.groups[t.group]; ok {
			delete(members, id)
		}
	}
	return true
}

// Exists reports whether id is still scheduled.
func (s *Scheduler) Exists(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// Size returns the number of live (non-cancelled) tasks.
func (s *Scheduler) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Clear cancels every task, including any group membership.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[TaskID]*task)
	s.groups = make(map[GroupID]map[TaskID]struct{})
}

// Modify reschedules an existing task's next run time, preserving its
// interval and group. Returns false if the task does not exist.
func (s *Scheduler) Modify(id TaskID, newDelay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	t.nextRunAt = time.Now().Add(newDelay)
	heap.Fix(&s.heap, t.index)
	s.wake()
	return true
}

// CreateGroup allocates a fresh, empty group.
func (s *Scheduler) CreateGroup() GroupID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++ // groups draw ids from the same counter as tasks, so no GroupID equals a TaskID
	gid := GroupID(s.nextID)
	s.groups[gid] = make(map[TaskID]struct{})
	return gid
}

// AddToGroup associates an existing task with a group.
func (s *Scheduler) AddToGroup(group GroupID, id TaskID) errs.Result[errs.Void] {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return errs.Fail[errs.Void](errs.OutOfRange, "task does not exist")
	}
	members, ok := s.groups[group]
	if !ok {
		members = make(map[TaskID]struct{})
		s.groups[group] = members
	}
	if t.hasGroup && t.group != group {
		if old, ok := s.groups[t.group]; ok {
			delete(old, id)
		}
	}
	t.group = group
	t.hasGroup = true
	members[id] = struct{}{}
	return errs.OkVoid()
}

// RemoveFromGroup disassociates a task from a group without cancelling
// the task itself.
func (s *Scheduler) RemoveFromGroup(group GroupID, id TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if members, ok := s.groups[group]; ok {
		delete(members, id)
	}
	if t, ok := s.tasks[id]; ok && t.hasGroup && t.group == group {
		t.hasGroup = false
	}
}

// CancelGroup cancels every task currently in group.
func (s *Scheduler) CancelGroup(group GroupID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.groups[group]
	if !ok {
		return 0
	}
	n := 0
	for id := range members {
		if s.cancelLocked(id) {
			n++
		}
	}
	delete(s.groups, group)
	return n
}

// GroupTimers lists the task ids currently in group.
func (s *Scheduler) GroupTimers(group GroupID) []TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.groups[group]
	if !ok {
		return nil
	}
	ids := make([]TaskID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Stop halts the worker goroutine and blocks until it exits. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		for s.heap.Len() > 0 {
			next := s.heap[0]
			if _, live := s.tasks[next.id]; !live {
				heap.Pop(&s.heap) // stale entry from a cancelled task
				continue
			}
			break
		}

		if s.heap.Len() == 0 {
			s.mu.Unlock()
			timer.Reset(time.Hour)
			select {
			case <-s.notify:
			case <-s.stop:
				return
			case <-timer.C:
			}
			continue
		}

		next := s.heap[0]
		wait := time.Until(next.nextRunAt)
		if wait > 0 {
			s.mu.Unlock()
			timer.Reset(wait)
			select {
			case <-s.notify:
			case <-s.stop:
				return
			case <-timer.C:
			}
			continue
		}

		t := heap.Pop(&s.heap).(*task)
		if _, live := s.tasks[t.id]; !live {
			s.mu.Unlock()
			continue
		}
		if t.repeat {
			t.nextRunAt = time.Now().Add(t.interval)
			heap.Push(&s.heap, t)
		} else {
			delete(s.tasks, t.id)
			if t.hasGroup {
				if members, ok := s.groups[t.group]; ok {
					delete(members, t.id)
				}
			}
		}
		cb := t.callback
		s.mu.Unlock()

		if cb != nil {
			func() {
				defer s.recoverCallback()
				cb()
			}()
		}
	}
}
