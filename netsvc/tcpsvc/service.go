// File: netsvc/tcpsvc/service.go
// License: Apache-2.0
//
// Service is the TCP acceptor, grounded on the original TcpService /
// TcpServiceConfig (io_thread_count, accept_backlog) and on the
// teacher's transport/tcp/listener.go + affinity package for pinning
// each acceptor goroutine to a configured CPU. Repeated transient
// accept errors (the Go equivalent of ASIO's would-block/interrupted
// retries) are throttled with golang.org/x/time/rate rather than a
// tight retry loop, grounded on the teacher's dependency surface.

package tcpsvc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nextgenrt/netkernel/affinity"
	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc"
	"github.com/nextgenrt/netkernel/pool"
	"golang.org/x/time/rate"
)

// Service is a TCP NetService: it accepts connections, frames traffic
// with the 7-byte header protocol, and delegates message dispatch to a
// caller-supplied Dispatcher.
type Service struct {
	*netsvc.NetService

	cfg     config.TCPServiceConfig
	log     logging.Sink
	factory *message.Factory
	dispatchFn Dispatcher
	bodyPool   *pool.BytePool

	listener net.Listener

	mu       sync.Mutex
	stopped  bool
	wg       sync.WaitGroup
}

// Dispatcher delivers a decoded Message to application logic.
// Typically a service.Base.PostMessage/RegisterHandler pair sits behind
// this.
type Dispatcher func(s *Session, msg message.Message)

// New builds a TCP service bound to cfg.ListenAddress but does not
// start accepting until Start is called.
func New(cfg config.TCPServiceConfig, factory *message.Factory, dispatcher Dispatcher, log logging.Sink) *Service {
	if log == nil {
		log = logging.Nop()
	}
	if factory == nil {
		factory = message.NewFactory()
	}
	if dispatcher == nil {
		dispatcher = func(s *Session, msg message.Message) {}
	}
	bodySize := int(cfg.MaxFrameBodySize)
	if bodySize <= 0 {
		bodySize = 1 << 20
	}
	return &Service{
		NetService: netsvc.NewNetService(cfg.SessionIdleTimeout, log),
		cfg:        cfg,
		log:        log,
		factory:    factory,
		dispatchFn: dispatcher,
		bodyPool:   pool.NewBytePool(bodySize, cfg.NUMANode, cfg.EnableNUMABufferPool),
	}
}

// dispatch invokes the caller-supplied Dispatcher with panic recovery,
// so a panicking handler closes neither the read loop nor the
// connection out from under it.
func (s *Service) dispatch(session *Session, msg message.Message) {
	defer s.recoverDispatch(session)
	s.dispatchFn(session, msg)
}

func (s *Service) recoverDispatch(session *Session) {
	if r := recover(); r != nil {
		s.log.Error("recovered from panic in TCP dispatcher",
			logging.Uint32("session", uint32(session.ID())), logging.String("panic", fmt.Sprint(r)))
	}
}

// Start binds the listen socket and launches cfg.IOThreadCount acceptor
// goroutines, each optionally pinned to a CPU from cfg.ReactorCPUs.
func (s *Service) Start() error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	s.listener = ln

	threads := s.cfg.IOThreadCount
	if threads < 1 {
		threads = 1
	}
	for i := 0; i < threads; i++ {
		cpu := -1
		if i < len(s.cfg.ReactorCPUs) {
			cpu = s.cfg.ReactorCPUs[i]
		}
		s.wg.Add(1)
		go s.acceptLoop(cpu)
	}
	return nil
}

// acceptLoop runs on its own goroutine, optionally pinned to cpu, and
// accepts connections until the listener is closed. Repeated transient
// errors (resource exhaustion, too-many-open-files) are throttled via a
// token-bucket limiter instead of spinning.
func (s *Service) acceptLoop(cpu int) {
	defer s.wg.Done()

	if cpu >= 0 {
		if err := affinity.SetAffinity(cpu); err != nil {
			s.log.Warning("failed to pin acceptor goroutine to CPU", logging.Int("cpu", cpu), logging.Err(err))
		}
	}

	limiter := rate.NewLimiter(rate.Every(10*time.Millisecond), 1)
	ctx := context.Background()
	consecutiveErrors := 0
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isStopped() {
				return
			}
			consecutiveErrors++
			if consecutiveErrors > 3 {
				s.log.Error("accept failed repeatedly, acceptor exiting", logging.Err(err))
				return
			}
			s.log.Warning("transient accept error, backing off", logging.Err(err))
			_ = limiter.Wait(ctx)
			continue
		}
		consecutiveErrors = 0
		s.handleAccepted(conn)
	}
}

func (s *Service) handleAccepted(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetWriteBuffer(s.cfg.SocketSendBufferSize)
		_ = tcpConn.SetReadBuffer(s.cfg.SocketRecvBufferSize)
	}
	id := s.NextSessionID()
	session := newSession(id, conn, s, s.factory, s.log, s.cfg.MaxFrameBodySize, s.bodyPool)
	s.AddSession(session)
	session.markOpen()
	go session.readLoop()
}

func (s *Service) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop closes the listener, every open session, and waits for acceptor
// goroutines to exit. Idempotent.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.CloseAllSessions()
	s.wg.Wait()
	return err
}

// Addr returns the bound listener address, useful for tests that bind
// to port 0.
func (s *Service) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
