// File: netsvc/udpsvc/frame.go
// License: Apache-2.0
//
// UDP datagrams carry the same 7-byte header as TCP (category uint8,
// id uint16, body_size uint32, little-endian) but never need the
// partial-read handling TCP's stream framing does: a datagram either
// arrives whole or is dropped by the kernel.

package udpsvc

import (
	"encoding/binary"

	"github.com/nextgenrt/netkernel/message"
)

const headerSize = 1 + 2 + 4

type frameHeader struct {
	Category message.Category
	ID       message.ID
	BodySize uint32
}

// EncodeDatagram builds a complete header+body datagram payload.
func EncodeDatagram(category message.Category, id message.ID, body []byte) []byte {
	out := make([]byte, headerSize+len(body))
	out[0] = category
	binary.LittleEndian.PutUint16(out[1:3], id)
	binary.LittleEndian.PutUint32(out[3:7], uint32(len(body)))
	copy(out[headerSize:], body)
	return out
}

// decodeDatagram parses a whole datagram. ok is false if the datagram
// is shorter than the header or its declared body size.
func decodeDatagram(data []byte) (frameHeader, []byte, bool) {
	if len(data) < headerSize {
		return frameHeader{}, nil, false
	}
	fh := frameHeader{
		Category: data[0],
		ID:       binary.LittleEndian.Uint16(data[1:3]),
		BodySize: binary.LittleEndian.Uint32(data[3:7]),
	}
	if uint32(len(data)-headerSize) < fh.BodySize {
		return frameHeader{}, nil, false
	}
	return fh, data[headerSize : headerSize+int(fh.BodySize)], true
}
