// File: netsvc/tcpsvc/session.go
// License: Apache-2.0
//
// Session is grounded on include/network/tcp_session.h /
// src/network/tcp_session.cpp: a read loop that alternates
// readHeader/readBody, a write_queue_ guarded by its own mutex so
// Send never blocks the caller on socket I/O, idempotent close, and
// resetIdleTimer on every successful read/write. Goroutine-per-
// connection replaces the ASIO async-handler chain as the idiomatic
// Go equivalent.

package tcpsvc

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nextgenrt/netkernel/errs"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc"
	"github.com/nextgenrt/netkernel/pool"
)

// Session is a single TCP connection framed with the 7-byte header
// protocol.
type Session struct {
	netsvc.AttributeBag

	id      netsvc.SessionID
	conn    net.Conn
	service *Service
	factory *message.Factory
	log     logging.Sink
	bodyPool *pool.BytePool

	maxBodySize uint32

	state atomic.Int32 // netsvc.SessionState

	writeMu    sync.Mutex
	writeQueue [][]byte
	writing    bool

	lastActivity atomic.Int64 // unix nanos
	closeOnce    sync.Once
}

func newSession(id netsvc.SessionID, conn net.Conn, svc *Service, factory *message.Factory, log logging.Sink, maxBodySize uint32, bodyPool *pool.BytePool) *Session {
	s := &Session{
		id:          id,
		conn:        conn,
		service:     svc,
		factory:     factory,
		log:         log,
		maxBodySize: maxBodySize,
		bodyPool:    bodyPool,
	}
	s.state.Store(int32(netsvc.Connecting))
	s.touch()
	return s
}

func (s *Session) touch() { s.lastActivity.Store(time.Now().UnixNano()) }

func (s *Session) ID() netsvc.SessionID      { return s.id }
func (s *Session) State() netsvc.SessionState { return netsvc.SessionState(s.state.Load()) }
func (s *Session) RemoteAddress() string     { return s.conn.RemoteAddr().String() }
func (s *Session) LastActivity() time.Time   { return time.Unix(0, s.lastActivity.Load()) }

// Send frames and enqueues a message for writing. If the write queue
// was empty, it starts the write pipeline; otherwise the in-flight
// write loop will pick it up, mirroring the original's
// "call writeMessage() only if queue was empty before push".
func (s *Session) Send(data []byte) error {
	if s.State() == netsvc.Closing || s.State() == netsvc.Disconnected {
		return errs.New(errs.SessionClosed, "session is closing or closed")
	}
	s.writeMu.Lock()
	wasEmpty := len(s.writeQueue) == 0
	s.writeQueue = append(s.writeQueue, data)
	startWriter := wasEmpty && !s.writing
	if startWriter {
		s.writing = true
	}
	s.writeMu.Unlock()

	if startWriter {
		go s.writeLoop()
	}
	return nil
}

// SendMessage serializes msg and frames it for sending.
func (s *Session) SendMessage(msg message.Message) error {
	res := msg.Serialize()
	body, ok := res.Value()
	if !ok {
		return res.Err()
	}
	frame := EncodeFrame(msg.Category(), msg.ID(), body)
	return s.Send(frame)
}

func (s *Session) writeLoop() {
	for {
		s.writeMu.Lock()
		if len(s.writeQueue) == 0 {
			s.writing = false
			s.writeMu.Unlock()
			return
		}
		buf := s.writeQueue[0]
		s.writeQueue = s.writeQueue[1:]
		s.writeMu.Unlock()

		if _, err := s.conn.Write(buf); err != nil {
			s.service.HandleSessionError(s, err)
			_ = s.Close()
			return
		}
		s.touch()
		s.service.HandleSent(s, len(buf))
	}
}

// readLoop drives the readHeader -> (readBody) -> deliver pipeline
// until the connection errors or closes.
func (s *Session) readLoop() {
	header := make([]byte, HeaderSize)
	for {
		if _, err := io.ReadFull(s.conn, header); err != nil {
			if !errors.Is(err, io.EOF) {
				s.service.HandleSessionError(s, err)
			}
			_ = s.Close()
			return
		}
		s.touch()
		fh := DecodeHeader(header)

		if fh.BodySize > s.maxBodySize {
			s.service.HandleSessionError(s, errs.New(errs.MessageTooLarge, "frame body exceeds configured maximum"))
			_ = s.Close()
			return
		}

		var body []byte
		var pooled []byte
		if fh.BodySize > 0 {
			pooled = s.bodyPool.GetBuffer()
			body = pooled[:fh.BodySize]
			if _, err := io.ReadFull(s.conn, body); err != nil {
				s.bodyPool.PutBuffer(pooled)
				s.service.HandleSessionError(s, err)
				_ = s.Close()
				return
			}
			s.touch()
		}

		s.deliver(fh, body)
		if pooled != nil {
			s.bodyPool.PutBuffer(pooled)
		}
	}
}

// deliver constructs a Message via the factory and hands it to the
// service. A factory miss or deserialize failure is logged and reading
// continues, preserving framing, exactly as the original
// handleReadBody does.
func (s *Session) deliver(fh FrameHeader, body []byte) {
	msg := s.factory.Create(fh.Category, fh.ID)
	msg.SetSessionID(uint32(s.id))
	if len(body) > 0 {
		if res := msg.Deserialize(body); res.HasError() {
			s.log.Warning("failed to deserialize message body, continuing",
				logging.Int("category", int(fh.Category)), logging.Int("id", int(fh.ID)), logging.Err(res.Err()))
			return
		}
	}
	s.service.HandleReceived(s, HeaderSize+len(body))
	s.service.dispatch(s, msg)
}

// Close idempotently shuts down the connection and removes the session
// from its owning service's table.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.state.Store(int32(netsvc.Closing))
		if tcpConn, ok := s.conn.(*net.TCPConn); ok {
			_ = tcpConn.CloseWrite()
		}
		err = s.conn.Close()
		s.state.Store(int32(netsvc.Disconnected))
		s.service.RemoveSession(s.id)
	})
	return err
}

func (s *Session) markOpen() {
	s.state.Store(int32(netsvc.Connected))
}
