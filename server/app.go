// File: server/app.go
// Package server wires the building blocks (service.Base, the TCP and
// UDP transports, Prometheus metrics, a logger and a message factory)
// into a single process entry point, grounded on the teacher's server/server.go
// NewServer/Serve facade and server/run.go's Run/Shutdown blocking
// pattern with a context.WithTimeout-bounded graceful teardown.
// License: Apache-2.0

package server

import (
	"context"
	"sync"

	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/metrics"
	"github.com/nextgenrt/netkernel/netsvc/tcpsvc"
	"github.com/nextgenrt/netkernel/netsvc/udpsvc"
	"github.com/nextgenrt/netkernel/service"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the composition root: one base service plus whichever
// transports its Config enables, all sharing a logger, a message
// factory, and a metrics registry.
type App struct {
	cfg *Config

	log      logging.Sink
	factory  *message.Factory
	registry prometheus.Registerer

	base *service.Base
	tcp  *tcpsvc.Service
	udp  *udpsvc.Service

	tcpMetrics *metrics.NetServiceMetrics
	udpMetrics *metrics.NetServiceMetrics

	tcpDispatch tcpsvc.Dispatcher
	udpDispatch udpsvc.Dispatcher
	lifecycle   service.Lifecycle

	pendingModules []service.Module

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New builds an App from cfg. Transports are constructed but not
// started; call Run to start them and block until Shutdown.
func New(cfg *Config, opts ...Option) *App {
	if cfg == nil {
		cfg = DefaultConfig("app")
	}
	a := &App{
		cfg:        cfg,
		log:        logging.Nop(),
		factory:    message.NewFactory(),
		registry:   prometheus.NewRegistry(),
		shutdownCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}

	svcCfg := config.DefaultServiceConfig(cfg.Name)
	a.base = service.New(svcCfg, a.lifecycle, nil, a.log)
	for _, m := range a.pendingModules {
		_ = a.base.Modules().Register(m)
	}

	if a.tcpDispatch == nil {
		a.tcpDispatch = func(s *tcpsvc.Session, msg message.Message) { a.base.PostMessage(msg) }
	}
	if a.udpDispatch == nil {
		a.udpDispatch = func(s *udpsvc.Session, msg message.Message) { a.base.PostMessage(msg) }
	}

	if cfg.TCP != nil {
		if cfg.TCP.EnableMonitoring {
			a.tcpMetrics = metrics.NewNetServiceMetrics(a.registry, cfg.Name+"_tcp")
		}
		a.tcp = tcpsvc.New(*cfg.TCP, a.factory, a.tcpDispatch, a.log)
	}
	if cfg.UDP != nil {
		if cfg.UDP.EnableMonitoring {
			a.udpMetrics = metrics.NewNetServiceMetrics(a.registry, cfg.Name+"_udp")
		}
		a.udp = udpsvc.New(*cfg.UDP, a.factory, a.udpDispatch, a.log)
	}
	return a
}

// Base returns the App's underlying service, for handler registration
// before Run is called.
func (a *App) Base() *service.Base { return a.base }

// TCP returns the TCP transport, or nil if Config.TCP was nil.
func (a *App) TCP() *tcpsvc.Service { return a.tcp }

// UDP returns the UDP transport, or nil if Config.UDP was nil.
func (a *App) UDP() *udpsvc.Service { return a.udp }

// Registry returns the Prometheus registry metrics were registered
// into, for an HTTP /metrics handler to serve.
func (a *App) Registry() prometheus.Registerer { return a.registry }

// Run initializes and starts the base service and every enabled
// transport, then blocks until Shutdown is called. On return, every
// subsystem has been stopped.
func (a *App) Run() error {
	if res := a.base.Init(); res.HasError() {
		return res.Err()
	}
	if res := a.base.Start(); res.HasError() {
		return res.Err()
	}
	if a.tcp != nil {
		if err := a.tcp.Start(); err != nil {
			return err
		}
	}
	if a.udp != nil {
		if err := a.udp.Start(); err != nil {
			return err
		}
	}

	<-a.shutdownCh

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if a.tcp != nil {
			_ = a.tcp.Stop()
		}
		if a.udp != nil {
			_ = a.udp.Stop()
		}
		_ = a.base.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warning("shutdown timed out before every subsystem stopped")
	}
	return nil
}

// Shutdown signals Run to stop accepting work and tear everything
// down. Idempotent.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() { close(a.shutdownCh) })
}
