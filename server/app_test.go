package server_test

import (
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc/tcpsvc"
	"github.com/nextgenrt/netkernel/server"
	"github.com/stretchr/testify/require"
)

func TestAppRunsTCPAndShutsDownCleanly(t *testing.T) {
	tcpCfg := config.DefaultTCPServiceConfig("app", "127.0.0.1:0")
	cfg := server.DefaultConfig("app")
	cfg.TCP = &tcpCfg
	cfg.ShutdownTimeout = time.Second

	var echoed int
	app := server.New(cfg, server.WithTCPDispatcher(func(s *tcpsvc.Session, msg message.Message) {
		echoed++
		_ = s.SendMessage(msg)
	}))

	done := make(chan error, 1)
	go func() { done <- app.Run() }()

	require.Eventually(t, func() bool { return app.TCP().Addr() != nil }, time.Second, 5*time.Millisecond)

	app.Shutdown()
	require.NoError(t, <-done)
}

func TestAppExposesBaseForHandlerRegistration(t *testing.T) {
	cfg := server.DefaultConfig("app")
	app := server.New(cfg)
	require.NotNil(t, app.Base())
	require.NotNil(t, app.Registry())
}
