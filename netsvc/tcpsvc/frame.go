// File: netsvc/tcpsvc/frame.go
// Package tcpsvc implements the TCP transport: a 7-byte little-endian
// frame header (category uint8, id uint16, body_size uint32) followed
// by an opaque body, grounded on src/network/tcp_session.cpp's
// HEADER_SIZE = sizeof(category)+sizeof(id)+sizeof(uint32) = 7 and its
// readHeader/handleReadHeader/readBody/handleReadBody pipeline. There
// is no partial-decode path: Session.readLoop reads exactly HeaderSize
// bytes, then exactly BodySize bytes, with io.ReadFull before decoding.
// License: Apache-2.0

package tcpsvc

import (
	"encoding/binary"

	"github.com/nextgenrt/netkernel/message"
)

// HeaderSize is the fixed wire header: 1 byte category + 2 byte id +
// 4 byte body size, all little-endian.
const HeaderSize = 1 + 2 + 4

// FrameHeader is the decoded fixed-size wire header.
type FrameHeader struct {
	Category message.Category
	ID       message.ID
	BodySize uint32
}

// EncodeHeader writes header into the first HeaderSize bytes of dst.
// dst must be at least HeaderSize long.
func EncodeHeader(h FrameHeader, dst []byte) {
	dst[0] = h.Category
	binary.LittleEndian.PutUint16(dst[1:3], h.ID)
	binary.LittleEndian.PutUint32(dst[3:7], h.BodySize)
}

// DecodeHeader parses a HeaderSize-byte buffer into a FrameHeader. The
// caller is responsible for ensuring len(buf) >= HeaderSize.
func DecodeHeader(buf []byte) FrameHeader {
	return FrameHeader{
		Category: buf[0],
		ID:       binary.LittleEndian.Uint16(buf[1:3]),
		BodySize: binary.LittleEndian.Uint32(buf[3:7]),
	}
}

// EncodeFrame builds a complete header+body wire frame for sending.
func EncodeFrame(category message.Category, id message.ID, body []byte) []byte {
	out := make([]byte, HeaderSize+len(body))
	EncodeHeader(FrameHeader{Category: category, ID: id, BodySize: uint32(len(body))}, out)
	copy(out[HeaderSize:], body)
	return out
}
