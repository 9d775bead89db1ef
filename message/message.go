// File: message/message.go
// Package message defines the wire-level message identity contract
// shared by every queue variant and network session.
// License: Apache-2.0

package message

import (
	"fmt"

	"github.com/nextgenrt/netkernel/errs"
)

// Category and ID together form the dispatch key for a message type.
type Category = uint8
type ID = uint16

// Message is the value object every queue, session, and handler table
// operates on. Concrete message types embed Base and override
// Serialize/Deserialize/Clone/Name.
type Message interface {
	Category() Category
	ID() ID
	SessionID() uint32
	SetSessionID(uint32)
	TimestampMs() uint64
	SetTimestampMs(uint64)
	Name() string
	Serialize() errs.Result[[]byte]
	Deserialize(data []byte) errs.Result[errs.Void]
	Clone() Message
	String() string
}

// Base is the default Message implementation. Unregistered (category,id)
// pairs resolve to a Base whose Serialize/Deserialize report
// NotImplemented, mirroring the original DefaultMessageFactory fallback.
type Base struct {
	category  Category
	id        ID
	sessionID uint32
	timestamp uint64
}

func NewBase(category Category, id ID) *Base {
	return &Base{category: category, id: id}
}

func (m *Base) Category() Category          { return m.category }
func (m *Base) ID() ID                      { return m.id }
func (m *Base) SessionID() uint32           { return m.sessionID }
func (m *Base) SetSessionID(id uint32)      { m.sessionID = id }
func (m *Base) TimestampMs() uint64         { return m.timestamp }
func (m *Base) SetTimestampMs(ts uint64)    { m.timestamp = ts }
func (m *Base) Name() string                { return "Message" }

func (m *Base) Serialize() errs.Result[[]byte] {
	return errs.Fail[[]byte](errs.NotImplemented, "serialization not implemented")
}

func (m *Base) Deserialize(data []byte) errs.Result[errs.Void] {
	return errs.Fail[errs.Void](errs.NotImplemented, "deserialization not implemented")
}

func (m *Base) Clone() Message {
	return &Base{category: m.category, id: m.id, sessionID: m.sessionID, timestamp: m.timestamp}
}

func (m *Base) String() string {
	return fmt.Sprintf("Message[category=%d, id=%d, session_id=%d, timestamp=%d]",
		m.category, m.id, m.sessionID, m.timestamp)
}

// DispatchKey computes the stable (category, id) lookup key shared by
// handler tables and message factories. Producer and consumer must
// compute it identically.
func DispatchKey(category Category, id ID) uint32 {
	return uint32(category)<<16 | uint32(id)
}
