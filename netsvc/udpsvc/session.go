// File: netsvc/udpsvc/session.go
// License: Apache-2.0
//
// Session represents one logical UDP peer. Grounded on
// include/network/udp_service.h's UdpSession: constructed directly
// into Connected state (no handshake), Send is a thin wrapper that
// writes through the owning Service's socket, and attributes are guarded
// the same way TCP's are.

package udpsvc

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc"
)

type Session struct {
	netsvc.AttributeBag

	id       netsvc.SessionID
	endpoint EndpointID
	addr     *net.UDPAddr
	service  *Service

	state        atomic.Int32
	lastActivity atomic.Int64
	closed       atomic.Bool
}

func newSession(id netsvc.SessionID, ep EndpointID, addr *net.UDPAddr, svc *Service) *Session {
	s := &Session{id: id, endpoint: ep, addr: addr, service: svc}
	s.state.Store(int32(netsvc.Connected))
	s.touch()
	return s
}

func (s *Session) touch() { s.lastActivity.Store(time.Now().UnixNano()) }

func (s *Session) ID() netsvc.SessionID       { return s.id }
func (s *Session) State() netsvc.SessionState { return netsvc.SessionState(s.state.Load()) }
func (s *Session) RemoteAddress() string      { return s.endpoint.String() }
func (s *Session) LastActivity() time.Time    { return time.Unix(0, s.lastActivity.Load()) }

// Send writes data, which must already be framed, to this session's
// endpoint through Service.SendTo, since UDP has no per-session socket.
// Unlike SendMessage it does not update the service's sent counters.
func (s *Session) Send(data []byte) error {
	_, err := s.service.SendTo(s.addr, data)
	return err
}

// SendMessage serializes msg, frames it, and sends it to this
// session's remote endpoint.
func (s *Session) SendMessage(msg message.Message) error {
	res := msg.Serialize()
	body, ok := res.Value()
	if !ok {
		return res.Err()
	}
	datagram := EncodeDatagram(msg.Category(), msg.ID(), body)
	if err := s.Send(datagram); err != nil {
		return err
	}
	s.service.HandleSent(s, len(datagram))
	return nil
}

// Close marks the session closed and removes it from the service's
// tables. Idempotent; UDP has no socket-level close, only logical
// teardown.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.state.Store(int32(netsvc.Disconnected))
	s.service.removeSession(s)
	return nil
}
