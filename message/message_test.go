package message_test

import (
	"testing"

	"github.com/nextgenrt/netkernel/errs"
	"github.com/nextgenrt/netkernel/message"
	"github.com/stretchr/testify/require"
)

type pingMessage struct {
	message.Base
	payload string
}

func newPing(category message.Category, id message.ID) message.Message {
	return &pingMessage{Base: *message.NewBase(category, id)}
}

func (p *pingMessage) Serialize() errs.Result[[]byte] {
	return errs.Ok([]byte(p.payload))
}

func (p *pingMessage) Deserialize(data []byte) errs.Result[errs.Void] {
	p.payload = string(data)
	return errs.OkVoid()
}

func (p *pingMessage) Clone() message.Message {
	clone := &pingMessage{Base: p.Base, payload: p.payload}
	return clone
}

func TestDispatchKeyIsStableAndUnique(t *testing.T) {
	require.Equal(t, message.DispatchKey(1, 2), message.DispatchKey(1, 2))
	require.NotEqual(t, message.DispatchKey(1, 2), message.DispatchKey(2, 1))
}

func TestBaseMessageReportsNotImplemented(t *testing.T) {
	m := message.NewBase(1, 1)
	res := m.Serialize()
	require.True(t, res.HasError())
	require.True(t, res.Err().Is(errs.New(errs.NotImplemented, "")))
}

func TestFactoryFallsBackToBaseOnMiss(t *testing.T) {
	f := message.NewFactory()
	m := f.Create(7, 9)
	require.Equal(t, message.Category(7), m.Category())
	require.Equal(t, message.ID(9), m.ID())
	require.False(t, f.Registered(7, 9))
}

func TestFactoryRegisterAndCreate(t *testing.T) {
	f := message.NewFactory()
	ok := f.Register(1, 1, newPing)
	require.True(t, ok)

	// second registration for the same key is rejected, not overwritten.
	ok = f.Register(1, 1, newPing)
	require.False(t, ok)

	m := f.Create(1, 1)
	ping, isPing := m.(*pingMessage)
	require.True(t, isPing)
	require.NotNil(t, ping)
}

func TestTypedHandlerRejectsWrongType(t *testing.T) {
	called := false
	h := message.Typed(func(p *pingMessage) errs.Result[errs.Void] {
		called = true
		return errs.OkVoid()
	})

	res := h.Handle(message.NewBase(1, 1))
	require.True(t, res.HasError())
	require.False(t, called)

	res = h.Handle(&pingMessage{Base: *message.NewBase(1, 1)})
	require.False(t, res.HasError())
	require.True(t, called)
}

func TestCloneIsIndependentCopy(t *testing.T) {
	p := &pingMessage{Base: *message.NewBase(2, 3), payload: "hello"}
	p.SetSessionID(42)
	clone := p.Clone().(*pingMessage)
	clone.payload = "changed"
	require.Equal(t, "hello", p.payload)
	require.Equal(t, uint32(42), clone.SessionID())
}
