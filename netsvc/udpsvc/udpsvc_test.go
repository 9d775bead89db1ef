package udpsvc_test

import (
	"net"
	"testing"
	"time"

	"github.com/nextgenrt/netkernel/config"
	"github.com/nextgenrt/netkernel/errs"
	"github.com/nextgenrt/netkernel/logging"
	"github.com/nextgenrt/netkernel/message"
	"github.com/nextgenrt/netkernel/netsvc/udpsvc"
	"github.com/stretchr/testify/require"
)

// rawMessage carries its body bytes unchanged, so the echo handler can
// send back exactly what it received. An unregistered (category, id)
// would resolve to message.Base, whose Deserialize fails and whose
// datagrams are therefore dropped before dispatch.
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

func startEchoService(t *testing.T) *udpsvc.Service {
	cfg := config.DefaultUDPServiceConfig("udp-echo", "127.0.0.1:0")
	factory := message.NewFactory()
	factory.Register(2, 7, newRaw)
	svc := udpsvc.New(cfg, factory, func(s *udpsvc.Session, msg message.Message) {
		_ = s.SendMessage(msg)
	}, logging.Nop())
	require.NoError(t, svc.Start())
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func TestUDPServiceCreatesSessionLazilyAndEchoes(t *testing.T) {
	svc := startEchoService(t)

	conn, err := net.Dial("udp", svc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	datagram := udpsvc.EncodeDatagram(2, 7, []byte("ping"))
	_, err = conn.Write(datagram)
	require.NoError(t, err)

	buf := make([]byte, 256)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, datagram, buf[:n])

	require.Eventually(t, func() bool { return svc.SessionCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestUDPServiceDropsMalformedDatagram(t *testing.T) {
	svc := startEchoService(t)

	conn, err := net.Dial("udp", svc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{1, 2}) // shorter than the 7-byte header
	require.NoError(t, err)

	// The malformed datagram should still create a session (it's keyed
	// by endpoint before decoding) but produce no echoed reply.
	require.Eventually(t, func() bool { return svc.SessionCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 16)
	_, err = conn.Read(buf)
	require.Error(t, err)
}

func TestUDPServiceReusesSessionForSameEndpoint(t *testing.T) {
	svc := startEchoService(t)

	conn, err := net.Dial("udp", svc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		datagram := udpsvc.EncodeDatagram(1, message.ID(i), nil)
		_, err = conn.Write(datagram)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return svc.SessionCount() == 1 }, time.Second, 5*time.Millisecond)
}
