package timer_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/timer"
	"github.com/stretchr/testify/require"
)

func TestOnceFiresExactlyOnce(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	var count atomic.Int32
	s.Once(10*time.Millisecond, func() { count.Add(1) })

	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), count.Load())
}

func TestPanicInCallbackDoesNotKillWorker(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	s.Once(5*time.Millisecond, func() { panic("boom") })

	var count atomic.Int32
	s.Once(20*time.Millisecond, func() { count.Add(1) })

	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRepeatFiresMultipleTimes(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	var count atomic.Int32
	s.Repeat(10*time.Millisecond, func() { count.Add(1) })

	require.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestCancelPreventsFiring(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	var fired atomic.Bool
	id := s.Once(30*time.Millisecond, func() { fired.Store(true) })
	require.True(t, s.Exists(id))
	require.True(t, s.Cancel(id))
	require.False(t, s.Exists(id))

	time.Sleep(80 * time.Millisecond)
	require.False(t, fired.Load())
}

func TestCancelIsIdempotentAndReportsMissing(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	id := s.Once(time.Hour, func() {})
	require.True(t, s.Cancel(id))
	require.False(t, s.Cancel(id))
}

func TestGroupCancelStopsAllMembers(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	group := s.CreateGroup()
	var fired atomic.Int32
	ids := make([]timer.TaskID, 0, 3)
	for i := 0; i < 3; i++ {
		id := s.Once(30*time.Millisecond, func() { fired.Add(1) })
		ids = append(ids, id)
		require.False(t, s.AddToGroup(group, id).HasError())
	}

	require.ElementsMatch(t, ids, s.GroupTimers(group))

	cancelled := s.CancelGroup(group)
	require.Equal(t, 3, cancelled)

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

func TestModifyReschedulesTask(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	var firedAt atomic.Int64
	start := time.Now()
	id := s.Once(time.Hour, func() { firedAt.Store(time.Since(start).Milliseconds()) })
	require.True(t, s.Modify(id, 10*time.Millisecond))

	require.Eventually(t, func() bool { return firedAt.Load() > 0 }, time.Second, 5*time.Millisecond)
}

func TestSizeAndClear(t *testing.T) {
	s := timer.New()
	defer s.Stop()

	s.Once(time.Hour, func() {})
	s.Once(time.Hour, func() {})
	require.Equal(t, 2, s.Size())

	s.Clear()
	require.Equal(t, 0, s.Size())
}

func TestStopIsIdempotent(t *testing.T) {
	s := timer.New()
	s.Stop()
	s.Stop()
}
