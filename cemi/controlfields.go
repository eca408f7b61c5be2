package cemi

import "fmt"

// Priority is the 2-bit frame priority carried in ControlField1.
type Priority uint8

// Priority values.
const (
	PrioritySystem Priority = 0
	PriorityNormal Priority = 1
	PriorityUrgent Priority = 2
	PriorityLow    Priority = 3
)

// FrameFormat distinguishes a standard cEMI frame from an extended one.
type FrameFormat uint8

const (
	FrameStandard FrameFormat = iota
	FrameExtended
)

// AddressType selects whether ControlField2's destination address is an
// individual (unicast) or group (multicast) address.
type AddressType uint8

const (
	AddressIndividual AddressType = iota
	AddressGroup
)

// ControlField1 is the first of the two cEMI control bytes: priority,
// repeat, broadcast, frame type and the two request/confirm flags.
type ControlField1 struct {
	FrameType   FrameFormat // bit 7: 1=standard, 0=extended
	Repeat      bool        // bit 5: true = do-not-repeat
	Broadcast   bool        // bit 4: true = system broadcast
	Priority    Priority    // bits 3-2
	AckRequest  bool        // bit 1
	ConfirmFlag bool        // bit 0: confirm/error on .con frames
}

// DefaultControlField1 is the value the tunnelling write() wrapper uses:
// standard frame, do-not-repeat, system broadcast, low priority, no ack
// request, no confirm — 0xBC.
func DefaultControlField1() ControlField1 {
	return ControlField1{
		FrameType: FrameStandard,
		Repeat:    true,
		Broadcast: true,
		Priority:  PriorityLow,
	}
}

// Encode packs the control field into its single wire byte.
func (c ControlField1) Encode() byte {
	var b byte
	if c.FrameType == FrameStandard {
		b |= 1 << 7
	}
	// bit 6 reserved, always 0
	if c.Repeat {
		b |= 1 << 5
	}
	if c.Broadcast {
		b |= 1 << 4
	}
	b |= byte(c.Priority&0x3) << 2
	if c.AckRequest {
		b |= 1 << 1
	}
	if c.ConfirmFlag {
		b |= 1
	}
	return b
}

// DecodeControlField1 unpacks a wire byte into a ControlField1.
func DecodeControlField1(b byte) ControlField1 {
	frameType := FrameExtended
	if b&(1<<7) != 0 {
		frameType = FrameStandard
	}
	return ControlField1{
		FrameType:   frameType,
		Repeat:      b&(1<<5) != 0,
		Broadcast:   b&(1<<4) != 0,
		Priority:    Priority((b >> 2) & 0x3),
		AckRequest:  b&(1<<1) != 0,
		ConfirmFlag: b&1 != 0,
	}
}

// ControlField2 is the second cEMI control byte: destination address
// type, hop count and extended frame format.
type ControlField2 struct {
	AddressType           AddressType // bit 7: 0=individual, 1=group
	HopCount              uint8       // bits 6-4, 0-7
	ExtendedFrameFormat   uint8       // bits 3-0
}

// DefaultControlField2Group is the value the tunnelling write() wrapper
// uses for an L_Data.req to a group address: standard, group, hop 6 — 0xE0.
func DefaultControlField2Group() ControlField2 {
	return ControlField2{AddressType: AddressGroup, HopCount: 6}
}

// Encode packs the control field into its single wire byte. It returns
// ErrValueOutOfRange if HopCount or ExtendedFrameFormat exceed their bit
// widths.
func (c ControlField2) Encode() (byte, error) {
	if c.HopCount > 7 {
		return 0, fmt.Errorf("%w: hop count %d exceeds 7", ErrValueOutOfRange, c.HopCount)
	}
	if c.ExtendedFrameFormat > 0xF {
		return 0, fmt.Errorf("%w: extended frame format %d exceeds 0xF", ErrValueOutOfRange, c.ExtendedFrameFormat)
	}

	var b byte
	if c.AddressType == AddressGroup {
		b |= 1 << 7
	}
	b |= (c.HopCount & 0x7) << 4
	b |= c.ExtendedFrameFormat & 0xF
	return b, nil
}

// DecodeControlField2 unpacks a wire byte into a ControlField2.
func DecodeControlField2(b byte) ControlField2 {
	addrType := AddressIndividual
	if b&(1<<7) != 0 {
		addrType = AddressGroup
	}
	return ControlField2{
		AddressType:         addrType,
		HopCount:            (b >> 4) & 0x7,
		ExtendedFrameFormat: b & 0xF,
	}
}

// DecrementHopCount applies the routing hop-count rule:
// h==0 drops the frame (ok=false); 1<=h<=6 decrements; h==7 is left
// unchanged (routing without decrement).
func DecrementHopCount(h uint8) (result uint8, ok bool) {
	switch {
	case h == 0:
		return 0, false
	case h == 7:
		return 7, true
	default:
		return h - 1, true
	}
}
