package knxip

import "fmt"

// ConnectionType identifies what a CONNECT_REQUEST is opening.
type ConnectionType byte

const (
	// DeviceManagementConnection opens a DEVICE_CONFIGURATION_REQUEST/ACK
	// channel.
	DeviceManagementConnection ConnectionType = 0x03

	// TunnelConnection opens a TUNNELLING_REQUEST/ACK channel — the
	// default connection type for tunnel.Connect.
	TunnelConnection ConnectionType = 0x04
)

// TunnelLayer selects which KNX link layer a tunnel connection exposes.
// TunnelLinkLayer (data link layer tunnelling) is the layer
// tunnel.Connect uses by default.
type TunnelLayer byte

const (
	TunnelLinkLayer   TunnelLayer = 0x02
	TunnelRawLayer    TunnelLayer = 0x04
	TunnelBusmonLayer TunnelLayer = 0x80
)

// CRI is a Connection Request Information block.
type CRI struct {
	Type  ConnectionType
	Layer TunnelLayer // meaningful for TunnelConnection only
}

// Encode packs a tunnel CRI to its 4 wire bytes: length, type, layer,
// reserved.
func (c CRI) Encode() []byte {
	return []byte{0x04, byte(c.Type), byte(c.Layer), 0x00}
}

// DecodeCRI unpacks a CRI from the front of buf.
func DecodeCRI(buf []byte) (CRI, error) {
	if len(buf) < 2 {
		return CRI{}, fmt.Errorf("%w: CRI needs at least 2 bytes, got %d", ErrMalformed, len(buf))
	}
	length := int(buf[0])
	if length > len(buf) {
		return CRI{}, fmt.Errorf("%w: CRI length %d overruns buffer", ErrMalformed, length)
	}
	cri := CRI{Type: ConnectionType(buf[1])}
	if length >= 3 {
		cri.Layer = TunnelLayer(buf[2])
	}
	return cri, nil
}

// Len returns how many bytes Encode produces, for slicing a combined
// CONNECT_REQUEST body.
func (c CRI) Len() int { return 4 }

// CRD is a Connection Response Data block. For a tunnel connection it
// carries the individual address knxd/the server assigned to this
// session in its last 2 bytes.
type CRD struct {
	Type             ConnectionType
	AssignedAddress  uint16 // tunnel connections only
}

// Encode packs a tunnel CRD to its 4 wire bytes.
func (c CRD) Encode() []byte {
	return []byte{0x04, byte(c.Type), byte(c.AssignedAddress >> 8), byte(c.AssignedAddress)}
}

// DecodeCRD unpacks a CRD from the front of buf.
func DecodeCRD(buf []byte) (CRD, error) {
	if len(buf) < 2 {
		return CRD{}, fmt.Errorf("%w: CRD needs at least 2 bytes, got %d", ErrMalformed, len(buf))
	}
	length := int(buf[0])
	if length > len(buf) {
		return CRD{}, fmt.Errorf("%w: CRD length %d overruns buffer", ErrMalformed, length)
	}
	crd := CRD{Type: ConnectionType(buf[1])}
	if length >= 4 {
		crd.AssignedAddress = uint16(buf[2])<<8 | uint16(buf[3])
	}
	return crd, nil
}

// Len returns how many bytes Encode produces.
func (c CRD) Len() int { return 4 }
