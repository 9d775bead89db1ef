package netsvc_test

import (
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/netsvc"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	netsvc.AttributeBag
	id           netsvc.SessionID
	state        netsvc.SessionState
	lastActivity time.Time
	closed       bool
}

func (s *fakeSession) ID() netsvc.SessionID        { return s.id }
func (s *fakeSession) State() netsvc.SessionState   { return s.state }
func (s *fakeSession) RemoteAddress() string        { return "127.0.0.1:0" }
func (s *fakeSession) LastActivity() time.Time      { return s.lastActivity }
func (s *fakeSession) Send(data []byte) error        { return nil }
func (s *fakeSession) Close() error                  { s.closed = true; s.state = netsvc.Disconnected; return nil }

func TestAddAndRemoveSession(t *testing.T) {
	svc := netsvc.NewNetService(time.Minute, nil)
	s := &fakeSession{id: svc.NextSessionID(), state: netsvc.Connected, lastActivity: time.Now()}
	svc.AddSession(s)

	require.Equal(t, 1, svc.SessionCount())
	got, ok := svc.GetSession(s.id)
	require.True(t, ok)
	require.Equal(t, s, got)

	svc.RemoveSession(s.id)
	require.Equal(t, 0, svc.SessionCount())
}

func TestCheckIdleSessionsGatedAtOneSecond(t *testing.T) {
	svc := netsvc.NewNetService(10*time.Millisecond, nil)
	s := &fakeSession{id: svc.NextSessionID(), state: netsvc.Connected, lastActivity: time.Now().Add(-time.Hour)}
	svc.AddSession(s)

	// Elapsed well under 1000ms: sweep must not run yet.
	svc.CheckIdleSessions(500 * time.Millisecond)
	require.False(t, s.closed)

	// Crossing the 1000ms accumulated threshold triggers the sweep.
	svc.CheckIdleSessions(600 * time.Millisecond)
	require.True(t, s.closed)
}

func TestCheckIdleSessionsDisabledWhenIdleAfterIsZero(t *testing.T) {
	svc := netsvc.NewNetService(0, nil)
	s := &fakeSession{id: svc.NextSessionID(), state: netsvc.Connected, lastActivity: time.Now().Add(-time.Hour)}
	svc.AddSession(s)

	svc.CheckIdleSessions(2 * time.Second)
	require.False(t, s.closed)
}

func TestCheckIdleSessionsSkipsNonConnectedStates(t *testing.T) {
	svc := netsvc.NewNetService(time.Millisecond, nil)
	s := &fakeSession{id: svc.NextSessionID(), state: netsvc.Closing, lastActivity: time.Now().Add(-time.Hour)}
	svc.AddSession(s)

	svc.CheckIdleSessions(2 * time.Second)
	require.False(t, s.closed)
}

func TestStatsReflectTraffic(t *testing.T) {
	svc := netsvc.NewNetService(time.Minute, nil)
	s := &fakeSession{id: svc.NextSessionID(), state: netsvc.Connected, lastActivity: time.Now()}
	svc.AddSession(s)

	stats := svc.Stats()
	require.Equal(t, uint64(1), stats.TotalConnections)
	require.Equal(t, 1, stats.ActiveSessions)
}

func TestAttributeBagRoundTrip(t *testing.T) {
	s := &fakeSession{}
	_, ok := s.Attribute("missing")
	require.False(t, ok)

	s.SetAttribute("k", 42)
	v, ok := s.Attribute("k")
	require.True(t, ok)
	require.Equal(t, 42, v)
}
