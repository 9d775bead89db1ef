// File: server/types.go
// Package server is the composition root: it wires a service.Base
// together with the TCP and/or UDP transports, a Prometheus registry,
// a logger and a message factory into the single App a process's main()
// constructs, grounded on the teacher's server/types.go Server facade
// (Config/DefaultConfig + a struct bundling listener, pool, and
// control behind one value).
// License: Apache-2.0

package server

import (
	"time"

	"github.com/nextgenrt/netkernel/config"
)

// Config selects which transports an App runs and how long graceful
// shutdown may take. A nil TCP or UDP config disables that transport.
type Config struct {
	Name string

	TCP *config.TCPServiceConfig
	UDP *config.UDPServiceConfig

	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with both transports disabled; callers
// enable the ones they need by setting Config.TCP and/or Config.UDP.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:            name,
		ShutdownTimeout: 30 * time.Second,
	}
}
