package runtime_test

import (
	"testing"

	"github.com/nextgenrt/netkernel/runtime"
	"github.com/stretchr/testify/require"
)

func TestNewFillsNilDependencies(t *testing.T) {
	rt := runtime.New(nil, nil, nil)
	require.NotNil(t, rt.Log)
	require.NotNil(t, rt.Scheduler)
	require.NotNil(t, rt.Factory)
	rt.Close()
}

func TestDefaultIsLazyAndStable(t *testing.T) {
	a := runtime.Default()
	b := runtime.Default()
	require.Same(t, a, b)
}
