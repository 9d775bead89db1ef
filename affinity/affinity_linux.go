//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity, using
// golang.org/x/sys/unix.SchedSetaffinity instead of the teacher's cgo
// pthread_setaffinity_np wrapper, since the pack's own reactor code
// (reactor/reactor_linux.go) already depends on golang.org/x/sys/unix
// for this class of syscall.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform pins the calling OS thread to cpuID. Go does not
// guarantee a goroutine stays on one OS thread, so it first calls
// runtime.LockOSThread itself; the calling goroutine stays wired to
// that thread afterwards, since nothing here unlocks it.
func setAffinityPlatform(cpuID int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity failed: %w", err)
	}
	return nil
}
