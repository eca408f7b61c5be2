package knxip

import "errors"

// ErrMalformed is returned when a buffer does not carry a valid
// KNXnet/IP structure: bad header magic, a length field that disagrees
// with the buffer, or a truncated fixed-size block.
var ErrMalformed = errors.New("knxip: malformed message")

// Status is a KNXnet/IP error/status code, carried in CONNECT_RESPONSE,
// CONNECTIONSTATE_RESPONSE, TUNNELLING_ACK and similar confirmations.
type Status byte

// Status codes returned in CONNECT_RESPONSE and CONNECTIONSTATE_RESPONSE.
const (
	StatusNoError           Status = 0x00
	StatusHostProtocolType   Status = 0x01
	StatusVersionNotSupported Status = 0x02
	StatusSequenceNumber     Status = 0x03
	StatusConnectionID       Status = 0x21
	StatusConnectionType     Status = 0x22
	StatusConnectionOption   Status = 0x23
	StatusNoMoreConnections  Status = 0x24
	StatusDataConnection     Status = 0x26
	StatusKNXConnection      Status = 0x27
	StatusTunnelingLayer     Status = 0x29
)

// String names a status code for logging.
func (s Status) String() string {
	switch s {
	case StatusNoError:
		return "no-error"
	case StatusHostProtocolType:
		return "host-protocol-type"
	case StatusVersionNotSupported:
		return "version-not-supported"
	case StatusSequenceNumber:
		return "sequence-number"
	case StatusConnectionID:
		return "connection-id"
	case StatusConnectionType:
		return "connection-type"
	case StatusConnectionOption:
		return "connection-option"
	case StatusNoMoreConnections:
		return "no-more-connections"
	case StatusDataConnection:
		return "data-connection"
	case StatusKNXConnection:
		return "knx-connection"
	case StatusTunnelingLayer:
		return "tunneling-layer"
	default:
		return "unknown"
	}
}
