// File: server/options.go
// Package server defines functional options for App, grounded on the
// teacher's server/options.go ServerOption pattern.
// License: Apache-2.0

package server

import (
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc/tcpsvc"
	"github.com/nextgenrt/netkernel/netsvc/udpsvc"
	"github.com/nextgenrt/netkernel/service"
	"github.com/prometheus/client_golang/prometheus"
)

// Option customizes App construction.
type Option func(*App)

// WithLogger sets the Sink every subsystem (base service, TCP, UDP)
// logs through. Defaults to a no-op sink.
func WithLogger(log logging.Sink) Option {
	return func(a *App) { a.log = log }
}

// WithFactory overrides the message.Factory used to construct inbound
// messages for both transports. Defaults to a fresh Factory.
func WithFactory(f *message.Factory) Option {
	return func(a *App) { a.factory = f }
}

// WithMetricsRegistry supplies the Prometheus registry TCP/UDP metrics
// register into. Defaults to a private unregistered registry so tests
// never collide with a process-wide default registerer.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(a *App) { a.registry = reg }
}

// WithTCPDispatcher overrides the default dispatcher, which forwards
// every decoded message into the App's service.Base via PostMessage.
func WithTCPDispatcher(d tcpsvc.Dispatcher) Option {
	return func(a *App) { a.tcpDispatch = d }
}

// WithUDPDispatcher overrides the default dispatcher for UDP.
func WithUDPDispatcher(d udpsvc.Dispatcher) Option {
	return func(a *App) { a.udpDispatch = d }
}

// WithLifecycle installs a service.Lifecycle for the App's base
// service (OnInit/OnStart/OnStop/OnUpdate hooks).
func WithLifecycle(lc service.Lifecycle) Option {
	return func(a *App) { a.lifecycle = lc }
}

// WithModule registers a module against the App's ModuleRegistry
// before the base service starts.
func WithModule(m service.Module) Option {
	return func(a *App) {
		a.pendingModules = append(a.pendingModules, m)
	}
}
