// File: config/config.go
// Package config defines the functional-options configuration layer for
// services, net services, and the TCP/UDP transports, grounded on the
// teacher's server/options.go ServerOption pattern.
// License: Apache-2.0

package config

import "time"

// ServiceConfig tunes a Service's worker loop.
type ServiceConfig struct {
	Name          string
	QueueCapacity int
	TickInterval  time.Duration
	EnableMonitoring bool
}

// ServiceOption customizes a ServiceConfig.
type ServiceOption func(*ServiceConfig)

// DefaultServiceConfig mirrors the original BaseService defaults: a
// 100ms wait_pop poll interval driving the on_update tick.
func DefaultServiceConfig(name string) ServiceConfig {
	return ServiceConfig{
		Name:          name,
		QueueCapacity: 1024,
		TickInterval:  100 * time.Millisecond,
	}
}

func WithQueueCapacity(n int) ServiceOption {
	return func(c *ServiceConfig) { c.QueueCapacity = n }
}

func WithTickInterval(d time.Duration) ServiceOption {
	return func(c *ServiceConfig) { c.TickInterval = d }
}

func WithMonitoring(enabled bool) ServiceOption {
	return func(c *ServiceConfig) { c.EnableMonitoring = enabled }
}

// NetServiceConfig extends ServiceConfig with session-management
// behavior common to TCP and UDP.
type NetServiceConfig struct {
	ServiceConfig
	IdleCheckIntervalMs int64
	SessionIdleTimeout  time.Duration
}

func DefaultNetServiceConfig(name string) NetServiceConfig {
	return NetServiceConfig{
		ServiceConfig:       DefaultServiceConfig(name),
		IdleCheckIntervalMs: 1000,
		SessionIdleTimeout:  5 * time.Minute,
	}
}

// NetServiceOption customizes a NetServiceConfig.
type NetServiceOption func(*NetServiceConfig)

func WithIdleCheckInterval(ms int64) NetServiceOption {
	return func(c *NetServiceConfig) { c.IdleCheckIntervalMs = ms }
}

func WithSessionIdleTimeout(d time.Duration) NetServiceOption {
	return func(c *NetServiceConfig) { c.SessionIdleTimeout = d }
}

// TCPServiceConfig adds the TCP-specific acceptor tuning the original
// TcpServiceConfig carried (io_thread_count, accept_backlog, socket
// buffer sizes), plus the reactor CPU-affinity pinning the teacher's
// transport/tcp package supports.
type TCPServiceConfig struct {
	NetServiceConfig
	ListenAddress        string
	IOThreadCount         int
	AcceptBacklog         int
	SocketSendBufferSize  int
	SocketRecvBufferSize  int
	ReactorCPUs           []int // CPU ids to pin acceptor/reactor goroutines to; empty disables pinning
	MaxFrameBodySize      uint32
	EnableNUMABufferPool  bool
	NUMANode              int
}

func DefaultTCPServiceConfig(name, listenAddress string) TCPServiceConfig {
	return TCPServiceConfig{
		NetServiceConfig:     DefaultNetServiceConfig(name),
		ListenAddress:        listenAddress,
		IOThreadCount:         1,
		AcceptBacklog:         128,
		SocketSendBufferSize:  8192,
		SocketRecvBufferSize:  8192,
		MaxFrameBodySize:      1 << 20,
	}
}

type TCPServiceOption func(*TCPServiceConfig)

func WithIOThreadCount(n int) TCPServiceOption {
	return func(c *TCPServiceConfig) { c.IOThreadCount = n }
}

func WithAcceptBacklog(n int) TCPServiceOption {
	return func(c *TCPServiceConfig) { c.AcceptBacklog = n }
}

func WithReactorCPUs(cpus ...int) TCPServiceOption {
	return func(c *TCPServiceConfig) { c.ReactorCPUs = cpus }
}

func WithMaxFrameBodySize(n uint32) TCPServiceOption {
	return func(c *TCPServiceConfig) { c.MaxFrameBodySize = n }
}

// UDPServiceConfig mirrors the original UdpServiceConfig: a single
// bound socket, a fixed max datagram size, and a longer idle sweep
// interval than TCP since UDP sessions are purely logical.
type UDPServiceConfig struct {
	NetServiceConfig
	ListenAddress      string
	MaxDatagramSize    int
	SessionTimeout     time.Duration
	SweepInterval       time.Duration
}

func DefaultUDPServiceConfig(name, listenAddress string) UDPServiceConfig {
	return UDPServiceConfig{
		NetServiceConfig: DefaultNetServiceConfig(name),
		ListenAddress:    listenAddress,
		MaxDatagramSize:  4096,
		SessionTimeout:   60 * time.Second,
		SweepInterval:    5 * time.Second,
	}
}

type UDPServiceOption func(*UDPServiceConfig)

func WithMaxDatagramSize(n int) UDPServiceOption {
	return func(c *UDPServiceConfig) { c.MaxDatagramSize = n }
}

func WithUDPSessionTimeout(d time.Duration) UDPServiceOption {
	return func(c *UDPServiceConfig) { c.SessionTimeout = d }
}

func WithUDPSweepInterval(d time.Duration) UDPServiceOption {
	return func(c *UDPServiceConfig) { c.SweepInterval = d }
}

// Apply runs every option against cfg in order, the standard
// functional-options application loop.
func Apply[C any](cfg *C, opts []func(*C)) {
	for _, opt := range opts {
		opt(cfg)
	}
}
