package knxip

import (
	"encoding/binary"
	"fmt"
	"net"
)

// HPAISize is the fixed wire length of an HPAI structure.
const HPAISize = 8

// HostProtocol identifies the transport an HPAI's address/port apply to.
type HostProtocol byte

const (
	ProtocolUDP4 HostProtocol = 0x01
	ProtocolTCP4 HostProtocol = 0x02
)

// HPAI is a Host Protocol Address Information block: an IPv4 address,
// port and transport protocol.
type HPAI struct {
	Protocol HostProtocol
	Addr     [4]byte
	Port     uint16
}

// RouteBack is the "reply to whoever sent this datagram" HPAI: 0.0.0.0:0.
func RouteBack(protocol HostProtocol) HPAI {
	return HPAI{Protocol: protocol}
}

// NewHPAI builds an HPAI from a net.IP (must be a 4-byte or 4-in-16 IPv4
// address) and port.
func NewHPAI(protocol HostProtocol, ip net.IP, port uint16) (HPAI, error) {
	v4 := ip.To4()
	if v4 == nil {
		return HPAI{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrMalformed, ip)
	}
	var h HPAI
	h.Protocol = protocol
	copy(h.Addr[:], v4)
	h.Port = port
	return h, nil
}

// IP returns the HPAI's address as a net.IP.
func (h HPAI) IP() net.IP {
	return net.IPv4(h.Addr[0], h.Addr[1], h.Addr[2], h.Addr[3])
}

// IsRouteBack reports whether this HPAI is the 0.0.0.0:0 sentinel asking
// the peer to reply to the packet's source address instead.
func (h HPAI) IsRouteBack() bool {
	return h.Addr == [4]byte{} && h.Port == 0
}

// Encode packs the HPAI to its 8 wire bytes.
func (h HPAI) Encode() []byte {
	buf := make([]byte, HPAISize)
	buf[0] = HPAISize
	buf[1] = byte(h.Protocol)
	copy(buf[2:6], h.Addr[:])
	binary.BigEndian.PutUint16(buf[6:8], h.Port)
	return buf
}

// DecodeHPAI unpacks an 8-byte HPAI from the front of buf.
func DecodeHPAI(buf []byte) (HPAI, error) {
	if len(buf) < HPAISize {
		return HPAI{}, fmt.Errorf("%w: HPAI needs %d bytes, got %d", ErrMalformed, HPAISize, len(buf))
	}
	if buf[0] != HPAISize {
		return HPAI{}, fmt.Errorf("%w: HPAI length byte must be %d, got %d", ErrMalformed, HPAISize, buf[0])
	}
	var h HPAI
	h.Protocol = HostProtocol(buf[1])
	copy(h.Addr[:], buf[2:6])
	h.Port = binary.BigEndian.Uint16(buf[6:8])
	return h, nil
}
