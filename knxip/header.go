package knxip

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed length of the KNXnet/IP header.
const HeaderSize = 6

const (
	headerSizeByte    byte = 0x06
	protocolVersion10 byte = 0x10
)

// Header is the 6-byte envelope preceding every KNXnet/IP frame body.
type Header struct {
	ServiceType ServiceType
	TotalLength uint16 // includes the 6 header bytes
}

// Encode packs the header to wire bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = headerSizeByte
	buf[1] = protocolVersion10
	binary.BigEndian.PutUint16(buf[2:4], uint16(h.ServiceType))
	binary.BigEndian.PutUint16(buf[4:6], h.TotalLength)
	return buf
}

// DecodeHeader unpacks and validates the 6-byte header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrMalformed, HeaderSize, len(buf))
	}
	if buf[0] != headerSizeByte {
		return Header{}, fmt.Errorf("%w: bad size byte %#x", ErrMalformed, buf[0])
	}
	if buf[1] != protocolVersion10 {
		return Header{}, fmt.Errorf("%w: unsupported protocol version %#x", ErrMalformed, buf[1])
	}
	h := Header{
		ServiceType: ServiceType(binary.BigEndian.Uint16(buf[2:4])),
		TotalLength: binary.BigEndian.Uint16(buf[4:6]),
	}
	return h, nil
}

// BuildFrame prepends a header (computed from body's length) to body.
func BuildFrame(serviceType ServiceType, body []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(body))
	h := Header{ServiceType: serviceType, TotalLength: uint16(HeaderSize + len(body))}
	out = append(out, h.Encode()...)
	out = append(out, body...)
	return out
}
