package logging_test

import (
	"testing"

	"github.com/nextgenrt/netkernel/logging"
	"github.com/stretchr/testify/require"
)

func TestNopSinkNeverPanics(t *testing.T) {
	sink := logging.Nop()
	sink.Info("hello", logging.String("k", "v"))
	sink.With(logging.Int("n", 1)).Warning("careful")
	require.NoError(t, sink.Sync())
}

func TestNewDevelopmentProducesUsableSink(t *testing.T) {
	sink, err := logging.NewDevelopment()
	require.NoError(t, err)
	require.NotNil(t, sink)
	sink.Debug("starting up", logging.String("component", "test"))
}
