// File: service/service.go
// Package service implements the lifecycle state machine and worker
// loop every higher-level service (net, application) builds on,
// grounded on the original include/core/service.h BaseService: a
// wait_pop(100ms)-driven run loop that dispatches messages through a
// handler table and ticks on_update on elapsed time.
// License: Apache-2.0

package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/control"
	"github.com/nextgenrt/netkernel/errs"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/queue"
)

// State is the service lifecycle state machine: New -> Initialized ->
// Running -> Stopped. Stopped is terminal; a service cannot be
// restarted once stopped.
type State int32

const (
	StateNew State = iota
	StateInitialized
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Lifecycle defines the hooks a concrete service can override. Each
// defaults to a no-op success in Base.
type Lifecycle interface {
	OnInit() errs.Result[errs.Void]
	OnStart() errs.Result[errs.Void]
	OnStop() errs.Result[errs.Void]
	OnUpdate(elapsed time.Duration)
}

// NopLifecycle is an embeddable Lifecycle with no-op hooks.
type NopLifecycle struct{}

func (NopLifecycle) OnInit() errs.Result[errs.Void]  { return errs.OkVoid() }
func (NopLifecycle) OnStart() errs.Result[errs.Void] { return errs.OkVoid() }
func (NopLifecycle) OnStop() errs.Result[errs.Void]  { return errs.OkVoid() }
func (NopLifecycle) OnUpdate(elapsed time.Duration)  {}

// Base is a runnable service: lifecycle state machine, a message
// queue, a dispatch-key-keyed handler table, and module registry with
// dependency resolution.
type Base struct {
	name      string
	state     atomic.Int32
	cfg       config.ServiceConfig
	log       logging.Sink
	queue     queue.MessageQueue
	lifecycle Lifecycle

	handlersMu sync.RWMutex
	handlers   map[uint32]message.Handler

	modules *ModuleRegistry
	control *control.Control

	stopCh chan struct{}
	doneCh chan struct{}

	lastUpdate      time.Time
	dispatchedCount atomic.Uint64
}

// New constructs a Base service. lifecycle may be nil to use
// NopLifecycle. q may be nil to default to a FIFOQueue bounded at
// cfg.QueueCapacity (unbounded when that is <= 0).
func New(cfg config.ServiceConfig, lifecycle Lifecycle, q queue.MessageQueue, log logging.Sink) *Base {
	if lifecycle == nil {
		lifecycle = NopLifecycle{}
	}
	if q == nil {
		q = queue.NewFIFOQueue(cfg.QueueCapacity)
	}
	if log == nil {
		log = logging.Nop()
	}
	b := &Base{
		name:      cfg.Name,
		cfg:       cfg,
		log:       log,
		queue:     q,
		lifecycle: lifecycle,
		handlers:  make(map[uint32]message.Handler),
		modules:   NewModuleRegistry(),
		control:   control.New(),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	b.control.RegisterDebugProbe(b.name+".queue_size", func() any { return b.queue.Size() })
	b.control.RegisterDebugProbe(b.name+".state", func() any { return b.State().String() })
	return b
}

func (s *Base) Name() string { return s.name }

func (s *Base) State() State { return State(s.state.Load()) }

func (s *Base) IsRunning() bool { return s.State() == StateRunning }

// Init transitions New -> Initialized, running every registered
// module's Init and the service's own OnInit hook.
func (s *Base) Init() errs.Result[errs.Void] {
	if s.State() != StateNew {
		return errs.Fail[errs.Void](errs.ServiceAlreadyStarted, "service already initialized")
	}
	if res := s.modules.InitAll(); res.HasError() {
		return res
	}
	if res := s.lifecycle.OnInit(); res.HasError() {
		return res
	}
	s.state.Store(int32(StateInitialized))
	return errs.OkVoid()
}

// Start transitions Initialized -> Running and spawns the worker loop.
func (s *Base) Start() errs.Result[errs.Void] {
	if s.State() != StateInitialized {
		return errs.Fail[errs.Void](errs.ServiceNotStarted, "service must be initialized before starting")
	}
	if res := s.modules.StartAll(); res.HasError() {
		return res
	}
	if res := s.lifecycle.OnStart(); res.HasError() {
		return res
	}
	s.lastUpdate = time.Now()
	s.state.Store(int32(StateRunning))
	go s.run()
	return errs.OkVoid()
}

// Stop transitions Running -> Stopped, draining the queue and waiting
// for the worker loop to exit before running module Stop hooks.
func (s *Base) Stop() errs.Result[errs.Void] {
	if s.State() != StateRunning {
		return errs.Fail[errs.Void](errs.ServiceNotStarted, "service is not running")
	}
	close(s.stopCh)
	s.queue.Shutdown()
	<-s.doneCh
	s.state.Store(int32(StateStopped))

	if res := s.lifecycle.OnStop(); res.HasError() {
		return res
	}
	return s.modules.StopAll()
}

// Wait blocks until the worker loop has exited, whether due to Stop or
// an external queue shutdown.
func (s *Base) Wait() { <-s.doneCh }

// PostMessage enqueues msg for asynchronous dispatch. Returns false if
// the service has stopped accepting messages.
// PostMessage stamps msg's timestamp_ms with the current time before
// pushing it into the service's queue, matching the original
// post(msg)'s system_now_ms() stamp-on-enqueue.
func (s *Base) PostMessage(msg message.Message) bool {
	msg.SetTimestampMs(uint64(time.Now().UnixMilli()))
	return s.queue.Push(msg)
}

// RegisterHandler binds a handler to (category, id). Returns
// HandlerAlreadyRegistered if the key is already bound.
func (s *Base) RegisterHandler(category message.Category, id message.ID, handler message.Handler) errs.Result[errs.Void] {
	key := message.DispatchKey(category, id)
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	if _, exists := s.handlers[key]; exists {
		return errs.Fail[errs.Void](errs.HandlerAlreadyRegistered, "handler already registered for this category/id")
	}
	s.handlers[key] = handler
	return errs.OkVoid()
}

func (s *Base) dispatch(msg message.Message) {
	key := message.DispatchKey(msg.Category(), msg.ID())
	s.handlersMu.RLock()
	handler, ok := s.handlers[key]
	s.handlersMu.RUnlock()
	if !ok {
		s.log.Warning("no handler registered for message", logging.Int("category", int(msg.Category())), logging.Int("id", int(msg.ID())))
		return
	}
	if res := handler.Handle(msg); res.HasError() {
		s.log.Error("handler returned an error", logging.Err(res.Err()))
	}
}

// Modules returns the module registry so callers can register modules
// and dependency edges before Init.
func (s *Base) Modules() *ModuleRegistry { return s.modules }

// RegisterModule registers m with the service's ModuleRegistry. If the
// service is already Running, InitAll/StartAll have already run for
// every other module, so m would otherwise sit registered but dead
// forever; RegisterModule additionally Inits and Starts it immediately
// in that case, rolling back (Stop, then remove) and surfacing the
// error if either step fails.
func (s *Base) RegisterModule(m Module) errs.Result[errs.Void] {
	if res := s.modules.Register(m); res.HasError() {
		return res
	}
	if s.State() != StateRunning {
		return errs.OkVoid()
	}
	if res := m.Init(); res.HasError() {
		_ = s.modules.Remove(m.Name())
		return res
	}
	if res := m.Start(); res.HasError() {
		_ = m.Stop()
		_ = s.modules.Remove(m.Name())
		return res
	}
	return errs.OkVoid()
}

// RemoveModule stops name's module (if the service is Running) and
// then deletes it from the registry.
func (s *Base) RemoveModule(name string) errs.Result[errs.Void] {
	m, ok := s.modules.Get(name)
	if !ok {
		return errs.Fail[errs.Void](errs.ModuleNotFound, "module not found: "+name)
	}
	if s.State() == StateRunning {
		if res := m.Stop(); res.HasError() {
			return res
		}
	}
	return s.modules.Remove(name)
}

// Control returns the runtime control surface (dynamic config + debug
// probes) operators can use to inspect or reconfigure this service.
func (s *Base) Control() *control.Control { return s.control }

func (s *Base) run() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			s.drain()
			return
		default:
		}

		msg, ok := s.queue.WaitPop(s.cfg.TickInterval)
		if ok {
			func() {
				defer s.recoverDispatch()
				s.dispatch(msg)
			}()
			s.dispatchedCount.Add(1)
		}

		now := time.Now()
		elapsed := now.Sub(s.lastUpdate)
		if elapsed >= s.cfg.TickInterval {
			s.lastUpdate = now
			func() {
				defer s.recoverUpdate()
				s.lifecycle.OnUpdate(elapsed)
				s.modules.UpdateAll(elapsed)
			}()
			s.control.Metrics().Set("messages_dispatched", s.dispatchedCount.Load())
			s.control.Metrics().Set("queue_size", s.queue.Size())
		}

		if !ok && s.queue.IsShutdown() {
			return
		}
	}
}

func (s *Base) drain() {
	for {
		msg, ok := s.queue.TryPop()
		if !ok {
			return
		}
		func() {
			defer s.recoverDispatch()
			s.dispatch(msg)
		}()
	}
}

func (s *Base) recoverDispatch() {
	if r := recover(); r != nil {
		s.log.Error("recovered from panic in message handler", logging.String("panic", fmt.Sprint(r)))
	}
}

func (s *Base) recoverUpdate() {
	if r := recover(); r != nil {
		s.log.Error("recovered from panic in OnUpdate", logging.String("panic", fmt.Sprint(r)))
	}
}
