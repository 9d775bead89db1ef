// File: runtime/runtime.go
// Package runtime bundles the cross-cutting dependencies every service
// needs -- a logging sink, a timer scheduler, a message factory --
// into one value passed explicitly to constructors, replacing the
// original's scattered singletons (DefaultMessageFactory::getInstance,
// TimerManager::getInstance) with the idiomatic Go equivalent: a
// dependency bundle threaded through the call graph rather than
// package-level global state. A lazily-initialized Default() is kept
// only for call sites (tests, small demos) that genuinely have no
// natural owner to thread a Runtime through.
// License: Apache-2.0

package runtime

import (
	"sync"

	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/timer"
)

// Runtime is an immutable bundle of shared infrastructure.
type Runtime struct {
	Log       logging.Sink
	Scheduler *timer.Scheduler
	Factory   *message.Factory
}

// New builds a Runtime from explicit dependencies. Any nil field is
// filled with a safe default (a no-op logger, a fresh scheduler, a
// fresh factory).
func New(log logging.Sink, scheduler *timer.Scheduler, factory *message.Factory) *Runtime {
	if log == nil {
		log = logging.Nop()
	}
	if scheduler == nil {
		scheduler = timer.New()
	}
	if factory == nil {
		factory = message.NewFactory()
	}
	scheduler.SetLogger(log)
	return &Runtime{Log: log, Scheduler: scheduler, Factory: factory}
}

// Close stops the runtime's scheduler and flushes its logger.
func (r *Runtime) Close() {
	r.Scheduler.Stop()
	_ = r.Log.Sync()
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
)

// Default returns a lazily-initialized process-wide Runtime backed by
// a no-op logger, for call sites with no natural place to construct
// and thread their own.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRT = New(logging.Nop(), nil, nil)
	})
	return defaultRT
}
