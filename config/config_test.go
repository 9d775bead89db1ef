package config_test

import (
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultServiceConfig(t *testing.T) {
	c := config.DefaultServiceConfig("echo")
	require.Equal(t, "echo", c.Name)
	require.Equal(t, 100*time.Millisecond, c.TickInterval)
	require.False(t, c.EnableMonitoring)
}

func TestServiceOptionsApply(t *testing.T) {
	c := config.DefaultServiceConfig("echo")
	config.Apply(&c, []func(*config.ServiceConfig){
		config.WithQueueCapacity(2048),
		config.WithMonitoring(true),
	})
	require.Equal(t, 2048, c.QueueCapacity)
	require.True(t, c.EnableMonitoring)
}

func TestDefaultTCPServiceConfig(t *testing.T) {
	c := config.DefaultTCPServiceConfig("tcp-echo", "127.0.0.1:9000")
	require.Equal(t, 1, c.IOThreadCount)
	require.Equal(t, 128, c.AcceptBacklog)
	require.Equal(t, int64(1000), c.IdleCheckIntervalMs)

	config.Apply(&c, []func(*config.TCPServiceConfig){
		config.WithIOThreadCount(4),
		config.WithReactorCPUs(0, 1, 2, 3),
	})
	require.Equal(t, 4, c.IOThreadCount)
	require.Equal(t, []int{0, 1, 2, 3}, c.ReactorCPUs)
}

func TestDefaultUDPServiceConfig(t *testing.T) {
	c := config.DefaultUDPServiceConfig("udp-echo", "127.0.0.1:9001")
	require.Equal(t, 4096, c.MaxDatagramSize)
	require.Equal(t, 60*time.Second, c.SessionTimeout)
	require.Equal(t, 5*time.Second, c.SweepInterval)
}
