package cemi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestDataFrameRoundTripProperty exercises every ControlField1/ControlField2
// combination against random addresses and TPDU payloads.
func TestDataFrameRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cf1 := ControlField1{
			FrameType:   FrameFormat(rapid.IntRange(0, 1).Draw(t, "frameType")),
			Repeat:      rapid.Bool().Draw(t, "repeat"),
			Broadcast:   rapid.Bool().Draw(t, "broadcast"),
			Priority:    Priority(rapid.IntRange(0, 3).Draw(t, "priority")),
			AckRequest:  rapid.Bool().Draw(t, "ackRequest"),
			ConfirmFlag: rapid.Bool().Draw(t, "confirmFlag"),
		}
		cf2 := ControlField2{
			AddressType:         AddressType(rapid.IntRange(0, 1).Draw(t, "addressType")),
			HopCount:            uint8(rapid.IntRange(0, 7).Draw(t, "hopCount")),
			ExtendedFrameFormat: uint8(rapid.IntRange(0, 15).Draw(t, "xff")),
		}
		src := uint16(rapid.IntRange(0, 0xFFFF).Draw(t, "src"))
		dst := uint16(rapid.IntRange(0, 0xFFFF).Draw(t, "dst"))
		tpduLen := rapid.IntRange(1, 20).Draw(t, "tpduLen")
		tpdu := make([]byte, tpduLen)
		for i := range tpdu {
			tpdu[i] = byte(rapid.IntRange(0, 255).Draw(t, "tpduByte"))
		}

		frame := DataFrame{
			MessageCode: MCLDataReq,
			Control1:    cf1,
			Control2:    cf2,
			Source:      src,
			Destination: dst,
			TPDU:        tpdu,
		}

		encoded, err := frame.Encode()
		require.NoError(t, err)

		decoded, err := DecodeDataFrame(encoded, MCLDataReq)
		require.NoError(t, err)

		require.Equal(t, frame.Control1, decoded.Control1)
		require.Equal(t, frame.Control2, decoded.Control2)
		require.Equal(t, frame.Source, decoded.Source)
		require.Equal(t, frame.Destination, decoded.Destination)
		require.Equal(t, frame.TPDU, decoded.TPDU)
	})
}
