package knxip

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{ServiceType: ConnectRequest, TotalLength: 26}
	encoded := h.Encode()
	assert.Equal(t, []byte{0x06, 0x10}, encoded[:2])

	decoded, err := DecodeHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	_, err := DecodeHeader([]byte{0x07, 0x10, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeHeader([]byte{0x06, 0x20, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestBuildFrame(t *testing.T) {
	body := []byte{1, 2, 3}
	frame := BuildFrame(TunnellingAck, body)
	require.Len(t, frame, HeaderSize+len(body))
	h, err := DecodeHeader(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(HeaderSize+len(body)), h.TotalLength)
	assert.Equal(t, body, frame[HeaderSize:])
}

func TestHPAIRoundTrip(t *testing.T) {
	h, err := NewHPAI(ProtocolUDP4, net.ParseIP("192.168.0.5"), 3671)
	require.NoError(t, err)

	encoded := h.Encode()
	assert.Len(t, encoded, HPAISize)

	decoded, err := DecodeHPAI(encoded)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
	assert.False(t, decoded.IsRouteBack())
}

func TestHPAIRouteBack(t *testing.T) {
	h := RouteBack(ProtocolUDP4)
	assert.True(t, h.IsRouteBack())
	assert.Equal(t, "0.0.0.0", h.IP().String())
}

func TestHPAIScenario1(t *testing.T) {
	// HPAI ctrl/data for 192.168.0.5:pp pp (UDP).
	h, err := NewHPAI(ProtocolUDP4, net.ParseIP("192.168.0.5"), 0xC0C0)
	require.NoError(t, err)
	encoded := h.Encode()
	assert.Equal(t, byte(0x08), encoded[0])
	assert.Equal(t, byte(0x01), encoded[1])
	assert.Equal(t, []byte{0xC0, 0xA8, 0x00, 0x05}, encoded[2:6])
}

func TestCRIRoundTrip(t *testing.T) {
	cri := CRI{Type: TunnelConnection, Layer: TunnelLinkLayer}
	encoded := cri.Encode()
	assert.Equal(t, []byte{0x04, 0x04, 0x02, 0x00}, encoded)

	decoded, err := DecodeCRI(encoded)
	require.NoError(t, err)
	assert.Equal(t, cri, decoded)
}

func TestCRDRoundTrip(t *testing.T) {
	crd := CRD{Type: TunnelConnection, AssignedAddress: 0x1104}
	encoded := crd.Encode()
	decoded, err := DecodeCRD(encoded)
	require.NoError(t, err)
	assert.Equal(t, crd, decoded)
}

func TestDeviceInfoRoundTrip(t *testing.T) {
	d := DeviceInfo{
		Medium:            MediumIP,
		Status:            0,
		IndividualAddress: 0x1101,
		ProjectInstallID:  0x0001,
		Serial:            [6]byte{1, 2, 3, 4, 5, 6},
		MulticastAddr:     [4]byte{224, 0, 23, 12},
		MAC:               [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		FriendlyName:      "KNX IP Router",
	}
	encoded := d.Encode()
	assert.Len(t, encoded, DeviceInfoSize)
	assert.Equal(t, byte(DeviceInfoSize), encoded[0])

	decoded, err := DecodeDeviceInfo(encoded)
	require.NoError(t, err)
	assert.Equal(t, d, decoded)
}

func TestSupportedServicesRoundTrip(t *testing.T) {
	s := DefaultSupportedServices()
	encoded := s.Encode()
	decoded, err := DecodeSupportedServices(encoded)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}
