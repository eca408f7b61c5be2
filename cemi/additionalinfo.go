package cemi

import "fmt"

// Additional-information type-ids.
const (
	InfoPLMedium                byte = 0x01
	InfoRFMedium                byte = 0x02
	InfoBusmonitorStatus        byte = 0x03
	InfoRelativeTimestamp       byte = 0x04
	InfoDelayUntilSending       byte = 0x05
	InfoExtendedRelativeTime    byte = 0x06
	InfoBiBat                   byte = 0x07
	InfoRFMulti                 byte = 0x08
	InfoPreamblePostamble       byte = 0x09
	InfoRFFastAck               byte = 0x0A
	InfoManufacturerSpecific    byte = 0xFE
)

// fixedInfoLengths maps a known type-id to its mandatory payload length.
// Type-ids absent from this map are either variable-length (handled
// below) or unknown, in which case only the declared length is trusted.
var fixedInfoLengths = map[byte]int{
	InfoPLMedium:             2,
	InfoRFMedium:             8,
	InfoBusmonitorStatus:     1,
	InfoRelativeTimestamp:    2,
	InfoDelayUntilSending:    4,
	InfoExtendedRelativeTime: 4,
	InfoBiBat:                2,
	InfoRFMulti:              4,
	InfoPreamblePostamble:    3,
}

// Info is one TLV item of a cEMI additional-information block.
type Info struct {
	Type    byte
	Payload []byte
}

// Encode returns the item's wire bytes: type, length, payload.
func (i Info) Encode() []byte {
	out := make([]byte, 2+len(i.Payload))
	out[0] = i.Type
	out[1] = byte(len(i.Payload))
	copy(out[2:], i.Payload)
	return out
}

// validate checks a decoded item's payload length against the fixed
// lengths table (and the two variable-length families' minimums).
func (i Info) validate() error {
	switch i.Type {
	case InfoRFFastAck:
		if len(i.Payload)%2 != 0 {
			return fmt.Errorf("%w: RF fast-ack payload must be a multiple of 2 bytes, got %d",
				ErrInvalidAdditionalInfo, len(i.Payload))
		}
	case InfoManufacturerSpecific:
		if len(i.Payload) < 3 {
			return fmt.Errorf("%w: manufacturer-specific payload must be at least 3 bytes, got %d",
				ErrInvalidAdditionalInfo, len(i.Payload))
		}
	default:
		if want, known := fixedInfoLengths[i.Type]; known && len(i.Payload) != want {
			return fmt.Errorf("%w: type 0x%02X payload must be %d bytes, got %d",
				ErrInvalidAdditionalInfo, i.Type, want, len(i.Payload))
		}
	}
	return nil
}

// EncodeInfoList encodes a list of additional-information items into the
// bytes that follow the cEMI add-info-length byte.
func EncodeInfoList(items []Info) ([]byte, error) {
	var out []byte
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		out = append(out, item.Encode()...)
	}
	if len(out) > 0xFF {
		return nil, fmt.Errorf("%w: additional information block too long (%d bytes)", ErrInvalidAdditionalInfo, len(out))
	}
	return out, nil
}

// DecodeInfoList decodes exactly length bytes of buf as a TLV list, per
// the add-info-length byte of the enclosing cEMI frame.
func DecodeInfoList(buf []byte, length int) ([]Info, error) {
	if length > len(buf) {
		return nil, fmt.Errorf("%w: declared length %d exceeds buffer (%d bytes)",
			ErrInvalidAdditionalInfo, length, len(buf))
	}

	region := buf[:length]
	var items []Info
	for len(region) > 0 {
		if len(region) < 2 {
			return nil, fmt.Errorf("%w: truncated TLV header", ErrInvalidAdditionalInfo)
		}
		typeID := region[0]
		payloadLen := int(region[1])
		if 2+payloadLen > len(region) {
			return nil, fmt.Errorf("%w: TLV type 0x%02X payload overruns block", ErrInvalidAdditionalInfo, typeID)
		}

		item := Info{Type: typeID, Payload: append([]byte(nil), region[2:2+payloadLen]...)}
		if err := item.validate(); err != nil {
			return nil, err
		}
		items = append(items, item)

		region = region[2+payloadLen:]
	}
	return items, nil
}
