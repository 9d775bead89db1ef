package tcpsvc_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/errs"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc/tcpsvc"
	"github.com/stretchr/testify/require"
)

// rawMessage carries its body bytes unchanged, so the echo handler can
// send back exactly what it received. An unregistered (category, id)
// would resolve to message.Base, whose Deserialize fails and whose
// frames are therefore dropped before dispatch.
type rawMessage struct {
	message.Base
	payload []byte
}

func (m *rawMessage) Serialize() errs.Result[[]byte] { return errs.Ok(m.payload) }

func (m *rawMessage) Deserialize(data []byte) errs.Result[errs.Void] {
	m.payload = append([]byte(nil), data...)
	return errs.OkVoid()
}

func newRaw(category message.Category, id message.ID) message.Message {
	return &rawMessage{Base: *message.NewBase(category, id)}
}

func startEchoService(t *testing.T) *tcpsvc.Service {
	cfg := config.DefaultTCPServiceConfig("echo", "127.0.0.1:0")
	cfg.IOThreadCount = 1

	factory := message.NewFactory()
	factory.Register(1, 42, newRaw)

	var received []message.Message
	var mu sync.Mutex
	svc := tcpsvc.New(cfg, factory, func(s *tcpsvc.Session, msg message.Message) {
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		_ = s.SendMessage(msg)
	}, logging.Nop())

	require.NoError(t, svc.Start())
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func TestTCPServiceAcceptsAndEchoesFrame(t *testing.T) {
	svc := startEchoService(t)

	conn, err := net.Dial("tcp", svc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	frame := tcpsvc.EncodeFrame(1, 42, []byte("hello"))
	_, err = conn.Write(frame)
	require.NoError(t, err)

	header := make([]byte, tcpsvc.HeaderSize)
	_, err = readFull(conn, header)
	require.NoError(t, err)
	fh := tcpsvc.DecodeHeader(header)
	require.Equal(t, message.Category(1), fh.Category)
	require.Equal(t, message.ID(42), fh.ID)

	body := make([]byte, fh.BodySize)
	_, err = readFull(conn, body)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return svc.SessionCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTCPServiceRejectsOversizedFrame(t *testing.T) {
	cfg := config.DefaultTCPServiceConfig("echo", "127.0.0.1:0")
	cfg.MaxFrameBodySize = 4

	svc := tcpsvc.New(cfg, nil, nil, logging.Nop())
	require.NoError(t, svc.Start())
	t.Cleanup(func() { _ = svc.Stop() })

	conn, err := net.Dial("tcp", svc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	frame := tcpsvc.EncodeFrame(1, 1, []byte("too long for the limit"))
	_, err = conn.Write(frame)
	require.NoError(t, err)

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(buf)
	require.Error(t, err) // connection closed by the server
}

func TestTCPServiceSessionCountDropsAfterClose(t *testing.T) {
	svc := startEchoService(t)

	conn, err := net.Dial("tcp", svc.Addr().String())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return svc.SessionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return svc.SessionCount() == 0 }, time.Second, 5*time.Millisecond)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
