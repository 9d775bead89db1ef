// File: netsvc/udpsvc/service.go
// Package udpsvc implements the UDP transport: a single bound socket,
// one receive loop, lazy per-endpoint session creation, and a
// multi-second idle sweep. Grounded on include/network/udp_service.h /
// src/network/udp_service.cpp: UdpEndpointId{address,port} keys the
// session map, UdpSession.Send is a thin wrapper over Service.SendTo
// since the session owns no socket, and the sweep interval defaults to
// 5s rather than TCP's 1s since UDP sessions are purely logical state.
// License: Apache-2.0

package udpsvc

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc"
)

// EndpointID identifies a UDP peer by address and port, grounded on
// the original UdpEndpointId{address, port} + hash.
type EndpointID struct {
	Address string
	Port    int
}

func (e EndpointID) String() string { return fmt.Sprintf("%s:%d", e.Address, e.Port) }

func endpointFromAddr(addr *net.UDPAddr) EndpointID {
	return EndpointID{Address: addr.IP.String(), Port: addr.Port}
}

// Dispatcher delivers a decoded Message from a UDP endpoint to
// application logic.
type Dispatcher func(s *Session, msg message.Message)

// Service is a UDP NetService: one bound socket serving every session,
// with sessions created lazily on first datagram from a new endpoint.
type Service struct {
	*netsvc.NetService

	cfg        config.UDPServiceConfig
	log        logging.Sink
	factory    *message.Factory
	dispatchFn Dispatcher

	conn *net.UDPConn

	mu        sync.Mutex
	byAddr    map[EndpointID]*Session
	byID      map[netsvc.SessionID]*Session
	stopped   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func New(cfg config.UDPServiceConfig, factory *message.Factory, dispatcher Dispatcher, log logging.Sink) *Service {
	if log == nil {
		log = logging.Nop()
	}
	if factory == nil {
		factory = message.NewFactory()
	}
	if dispatcher == nil {
		dispatcher = func(s *Session, msg message.Message) {}
	}
	return &Service{
		NetService: netsvc.NewNetService(cfg.SessionTimeout, log),
		cfg:        cfg,
		log:        log,
		factory:    factory,
		dispatchFn: dispatcher,
		byAddr:     make(map[EndpointID]*Session),
		byID:       make(map[netsvc.SessionID]*Session),
		stopCh:     make(chan struct{}),
	}
}

// dispatch invokes the caller-supplied Dispatcher with panic recovery,
// so a panicking handler does not take down the receive loop.
func (s *Service) dispatch(session *Session, msg message.Message) {
	defer s.recoverDispatch(session)
	s.dispatchFn(session, msg)
}

func (s *Service) recoverDispatch(session *Session) {
	if r := recover(); r != nil {
		s.log.Error("recovered from panic in UDP dispatcher",
			logging.Uint32("session", uint32(session.ID())), logging.String("panic", fmt.Sprint(r)))
	}
}

// Start binds the UDP socket and launches the receive and sweep loops.
func (s *Service) Start() error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	s.conn = conn

	s.wg.Add(2)
	go s.receiveLoop()
	go s.sweepLoop()
	return nil
}

func (s *Service) receiveLoop() {
	defer s.wg.Done()
	buf := make([]byte, s.cfg.MaxDatagramSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.isStopped() {
				return
			}
			s.log.Warning("udp read error", logging.Err(err))
			continue
		}
		s.handleDatagram(addr, buf[:n])
	}
}

func (s *Service) handleDatagram(addr *net.UDPAddr, data []byte) {
	ep := endpointFromAddr(addr)
	session := s.getOrCreateSession(ep, addr)
	session.touch()

	fh, body, ok := decodeDatagram(data)
	if !ok {
		s.log.Warning("dropped malformed datagram", logging.String("endpoint", ep.String()))
		return
	}

	msg := s.factory.Create(fh.Category, fh.ID)
	msg.SetSessionID(uint32(session.ID()))
	if len(body) > 0 {
		if res := msg.Deserialize(body); res.HasError() {
			s.log.Warning("failed to deserialize datagram body", logging.Err(res.Err()))
			return
		}
	}
	s.HandleReceived(session, len(data))
	s.dispatch(session, msg)
}

// getOrCreateSession returns the existing session for ep, or lazily
// creates one marked Connected immediately, matching the original
// UdpSession's constructor behavior (no handshake phase for UDP).
func (s *Service) getOrCreateSession(ep EndpointID, addr *net.UDPAddr) *Session {
	s.mu.Lock()
	if sess, ok := s.byAddr[ep]; ok {
		s.mu.Unlock()
		return sess
	}
	id := s.NextSessionID()
	sess := newSession(id, ep, addr, s)
	s.byAddr[ep] = sess
	s.byID[id] = sess
	s.mu.Unlock()

	s.AddSession(sess)
	return sess
}

// SendTo writes a pre-framed datagram to addr on the service's single
// socket. Session.Send and Session.SendMessage both write through it.
func (s *Service) SendTo(addr *net.UDPAddr, data []byte) (int, error) {
	return s.conn.WriteToUDP(data, addr)
}

func (s *Service) removeSession(sess *Session) {
	s.mu.Lock()
	delete(s.byAddr, sess.endpoint)
	delete(s.byID, sess.ID())
	s.mu.Unlock()
	s.RemoveSession(sess.ID())
}

// sweepLoop runs CheckIdleSessions every cfg.SweepInterval (default
// 5s), longer than TCP's 1s gate since UDP has no connection to keep
// alive, only logical session state.
func (s *Service) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.CheckIdleSessions(s.cfg.SweepInterval)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Service) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop closes the socket and waits for the receive/sweep loops to
// exit. Idempotent.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	var err error
	if s.conn != nil {
		err = s.conn.Close()
	}
	s.CloseAllSessions()
	s.wg.Wait()
	return err
}

func (s *Service) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}
