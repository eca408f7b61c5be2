package cemi

import "fmt"

// MessageCode is the first byte of every cEMI frame, identifying which
// link-layer primitive and direction the frame carries.
type MessageCode byte

// Message codes the cEMI codec needs.
const (
	MCLDataReq MessageCode = 0x11
	MCLDataCon MessageCode = 0x2E
	MCLDataInd MessageCode = 0x29

	MCLPollDataReq MessageCode = 0x13
	MCLPollDataCon MessageCode = 0x25

	MCLRawReq MessageCode = 0x10
	MCLRawInd MessageCode = 0x2D
	MCLRawCon MessageCode = 0x2F
)

// DataFrame is a decoded L_Data.{req,con,ind} frame. Source and
// Destination are the raw 16-bit wire addresses; resolving Destination
// to an "A.L.D" or "M/M/S"/"M/S" string is the caller's job (via the
// address package) since the cEMI layer alone cannot tell a 2-level
// group address from a 3-level one.
type DataFrame struct {
	MessageCode    MessageCode
	AdditionalInfo []Info
	Control1       ControlField1
	Control2       ControlField2
	Source         uint16
	Destination    uint16
	TPDU           []byte
}

// Encode packs a DataFrame to wire bytes.
func (f DataFrame) Encode() ([]byte, error) {
	switch f.MessageCode {
	case MCLDataReq, MCLDataCon, MCLDataInd:
	default:
		return nil, fmt.Errorf("%w: %#x is not an L_Data message code", ErrInvalidMessageCode, byte(f.MessageCode))
	}

	if len(f.TPDU) == 0 {
		return nil, fmt.Errorf("%w: TPDU must be at least 1 byte", ErrTruncatedFrame)
	}
	lsduLen := len(f.TPDU) - 1
	if lsduLen > 0xFF {
		return nil, fmt.Errorf("%w: TPDU too long (%d bytes)", ErrValueOutOfRange, len(f.TPDU))
	}

	info, err := EncodeInfoList(f.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	cf2, err := f.Control2.Encode()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 9+len(info)+len(f.TPDU))
	out = append(out, byte(f.MessageCode), byte(len(info)))
	out = append(out, info...)
	out = append(out, f.Control1.Encode(), cf2)
	out = append(out, byte(f.Source>>8), byte(f.Source))
	out = append(out, byte(f.Destination>>8), byte(f.Destination))
	out = append(out, byte(lsduLen))
	out = append(out, f.TPDU...)
	return out, nil
}

// DecodeDataFrame unpacks an L_Data frame, verifying its message code
// matches one of expected (pass a single code to require an exact match).
func DecodeDataFrame(buf []byte, expected ...MessageCode) (DataFrame, error) {
	if len(buf) < 2 {
		return DataFrame{}, fmt.Errorf("%w: need at least 2 bytes, got %d", ErrTruncatedFrame, len(buf))
	}

	mc := MessageCode(buf[0])
	if len(expected) > 0 && !containsCode(expected, mc) {
		return DataFrame{}, fmt.Errorf("%w: got %#x", ErrInvalidMessageCode, byte(mc))
	}

	infoLen := int(buf[1])
	offset := 2
	if offset+infoLen > len(buf) {
		return DataFrame{}, fmt.Errorf("%w: additional-info length %d overruns frame", ErrInvalidAdditionalInfo, infoLen)
	}
	info, err := DecodeInfoList(buf[offset:], infoLen)
	if err != nil {
		return DataFrame{}, err
	}
	offset += infoLen

	if offset+7 > len(buf) {
		return DataFrame{}, fmt.Errorf("%w: missing control/address/length bytes", ErrTruncatedFrame)
	}
	cf1 := DecodeControlField1(buf[offset])
	cf2 := DecodeControlField2(buf[offset+1])
	src := uint16(buf[offset+2])<<8 | uint16(buf[offset+3])
	dst := uint16(buf[offset+4])<<8 | uint16(buf[offset+5])
	lsduLen := int(buf[offset+6])
	offset += 7

	tpduEnd := offset + lsduLen + 1
	if tpduEnd > len(buf) {
		return DataFrame{}, fmt.Errorf("%w: declared LSDU length %d overruns frame", ErrTruncatedFrame, lsduLen)
	}
	tpdu := append([]byte(nil), buf[offset:tpduEnd]...)

	return DataFrame{
		MessageCode:    mc,
		AdditionalInfo: info,
		Control1:       cf1,
		Control2:       cf2,
		Source:         src,
		Destination:    dst,
		TPDU:           tpdu,
	}, nil
}

func containsCode(codes []MessageCode, mc MessageCode) bool {
	for _, c := range codes {
		if c == mc {
			return true
		}
	}
	return false
}

// PollDataFrame is an L_Poll_Data.{req,con} frame: the same header as
// L_Data up to the destination address, followed by a 4-bit slot count
// and, for .con, a 4-bit poll-data value.
type PollDataFrame struct {
	MessageCode    MessageCode
	AdditionalInfo []Info
	Control1       ControlField1
	Control2       ControlField2
	Source         uint16
	Destination    uint16
	NumSlots       uint8 // 0-15
	PollData       uint8 // 0-14, .con only
}

// Encode packs a PollDataFrame to wire bytes.
func (f PollDataFrame) Encode() ([]byte, error) {
	switch f.MessageCode {
	case MCLPollDataReq, MCLPollDataCon:
	default:
		return nil, fmt.Errorf("%w: %#x is not an L_Poll_Data message code", ErrInvalidMessageCode, byte(f.MessageCode))
	}
	if f.NumSlots > 15 {
		return nil, fmt.Errorf("%w: num-slots %d exceeds 15", ErrValueOutOfRange, f.NumSlots)
	}
	if f.MessageCode == MCLPollDataCon && f.PollData > 14 {
		return nil, fmt.Errorf("%w: poll-data %d exceeds 14", ErrValueOutOfRange, f.PollData)
	}

	info, err := EncodeInfoList(f.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	cf2, err := f.Control2.Encode()
	if err != nil {
		return nil, err
	}

	trailer := f.NumSlots << 4
	if f.MessageCode == MCLPollDataCon {
		trailer |= f.PollData & 0xF
	}

	out := make([]byte, 0, 9+len(info))
	out = append(out, byte(f.MessageCode), byte(len(info)))
	out = append(out, info...)
	out = append(out, f.Control1.Encode(), cf2)
	out = append(out, byte(f.Source>>8), byte(f.Source))
	out = append(out, byte(f.Destination>>8), byte(f.Destination))
	out = append(out, trailer)
	return out, nil
}

// DecodePollDataFrame unpacks an L_Poll_Data frame.
func DecodePollDataFrame(buf []byte, expected ...MessageCode) (PollDataFrame, error) {
	if len(buf) < 2 {
		return PollDataFrame{}, fmt.Errorf("%w: need at least 2 bytes, got %d", ErrTruncatedFrame, len(buf))
	}
	mc := MessageCode(buf[0])
	if len(expected) > 0 && !containsCode(expected, mc) {
		return PollDataFrame{}, fmt.Errorf("%w: got %#x", ErrInvalidMessageCode, byte(mc))
	}

	infoLen := int(buf[1])
	offset := 2
	if offset+infoLen > len(buf) {
		return PollDataFrame{}, fmt.Errorf("%w: additional-info length %d overruns frame", ErrInvalidAdditionalInfo, infoLen)
	}
	info, err := DecodeInfoList(buf[offset:], infoLen)
	if err != nil {
		return PollDataFrame{}, err
	}
	offset += infoLen

	if offset+7 > len(buf) {
		return PollDataFrame{}, fmt.Errorf("%w: missing control/address/trailer bytes", ErrTruncatedFrame)
	}
	cf1 := DecodeControlField1(buf[offset])
	cf2 := DecodeControlField2(buf[offset+1])
	src := uint16(buf[offset+2])<<8 | uint16(buf[offset+3])
	dst := uint16(buf[offset+4])<<8 | uint16(buf[offset+5])
	trailer := buf[offset+6]

	f := PollDataFrame{
		MessageCode:    mc,
		AdditionalInfo: info,
		Control1:       cf1,
		Control2:       cf2,
		Source:         src,
		Destination:    dst,
		NumSlots:       (trailer >> 4) & 0xF,
	}
	if mc == MCLPollDataCon {
		f.PollData = trailer & 0xF
	}
	return f, nil
}

// RawFrame is an L_Raw.{req,con,ind} frame: message code, additional
// information, and an opaque payload with no control fields or addresses.
type RawFrame struct {
	MessageCode    MessageCode
	AdditionalInfo []Info
	Payload        []byte
}

// Encode packs a RawFrame to wire bytes.
func (f RawFrame) Encode() ([]byte, error) {
	info, err := EncodeInfoList(f.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+len(info)+len(f.Payload))
	out = append(out, byte(f.MessageCode), byte(len(info)))
	out = append(out, info...)
	out = append(out, f.Payload...)
	return out, nil
}

// DecodeRawFrame unpacks an L_Raw frame.
func DecodeRawFrame(buf []byte, expected ...MessageCode) (RawFrame, error) {
	if len(buf) < 2 {
		return RawFrame{}, fmt.Errorf("%w: need at least 2 bytes, got %d", ErrTruncatedFrame, len(buf))
	}
	mc := MessageCode(buf[0])
	if len(expected) > 0 && !containsCode(expected, mc) {
		return RawFrame{}, fmt.Errorf("%w: got %#x", ErrInvalidMessageCode, byte(mc))
	}

	infoLen := int(buf[1])
	offset := 2
	if offset+infoLen > len(buf) {
		return RawFrame{}, fmt.Errorf("%w: additional-info length %d overruns frame", ErrInvalidAdditionalInfo, infoLen)
	}
	info, err := DecodeInfoList(buf[offset:], infoLen)
	if err != nil {
		return RawFrame{}, err
	}
	offset += infoLen

	payload := append([]byte(nil), buf[offset:]...)
	return RawFrame{MessageCode: mc, AdditionalInfo: info, Payload: payload}, nil
}
