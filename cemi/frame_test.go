package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDataFrameScenario1 reproduces the write("1/1/1", DPT1, true) frame
// byte-for-byte.
func TestDataFrameScenario1(t *testing.T) {
	tpdu, short, err := EncodeAPDU(TPCIDataGroup, GroupValueWrite, []byte{0x01})
	require.NoError(t, err)
	assert.True(t, short)
	assert.Equal(t, []byte{0x00, 0x81}, tpdu)

	frame := DataFrame{
		MessageCode: MCLDataReq,
		Control1:    DefaultControlField1(),
		Control2:    DefaultControlField2Group(),
		Source:      0x0000, // "0.0.0"
		Destination: 0x0901, // 1/1/1
		TPDU:        tpdu,
	}

	got, err := frame.Encode()
	require.NoError(t, err)
	want := []byte{0x11, 0x00, 0xBC, 0xE0, 0x00, 0x00, 0x09, 0x01, 0x01, 0x00, 0x81}
	assert.Equal(t, want, got)

	decoded, err := DecodeDataFrame(got, MCLDataReq)
	require.NoError(t, err)
	assert.Equal(t, frame.Control1, decoded.Control1)
	assert.Equal(t, frame.Control2, decoded.Control2)
	assert.Equal(t, frame.Source, decoded.Source)
	assert.Equal(t, frame.Destination, decoded.Destination)
	assert.Equal(t, frame.TPDU, decoded.TPDU)
}

func TestDataFrameWrongMessageCode(t *testing.T) {
	frame := DataFrame{
		MessageCode: MCLDataInd,
		Control2:    DefaultControlField2Group(),
		TPDU:        []byte{0x00, 0x00},
	}
	encoded, err := frame.Encode()
	require.NoError(t, err)

	_, err = DecodeDataFrame(encoded, MCLDataReq)
	require.ErrorIs(t, err, ErrInvalidMessageCode)
}

func TestDataFrameTruncated(t *testing.T) {
	_, err := DecodeDataFrame([]byte{0x11, 0x00, 0xBC, 0xE0, 0x00}, MCLDataReq)
	require.ErrorIs(t, err, ErrTruncatedFrame)
}

func TestDataFrameWithAdditionalInfo(t *testing.T) {
	frame := DataFrame{
		MessageCode:    MCLDataInd,
		AdditionalInfo: []Info{{Type: InfoRelativeTimestamp, Payload: []byte{0x01, 0x02}}},
		Control2:       DefaultControlField2Group(),
		TPDU:           []byte{0x00, 0x80},
	}
	encoded, err := frame.Encode()
	require.NoError(t, err)
	assert.Equal(t, byte(4), encoded[1]) // add-info-length byte

	decoded, err := DecodeDataFrame(encoded, MCLDataInd)
	require.NoError(t, err)
	require.Len(t, decoded.AdditionalInfo, 1)
	assert.Equal(t, InfoRelativeTimestamp, decoded.AdditionalInfo[0].Type)
	assert.Equal(t, []byte{0x01, 0x02}, decoded.AdditionalInfo[0].Payload)
}

func TestAdditionalInfoFixedLengthValidation(t *testing.T) {
	_, err := EncodeInfoList([]Info{{Type: InfoBusmonitorStatus, Payload: []byte{0x01, 0x02}}})
	require.ErrorIs(t, err, ErrInvalidAdditionalInfo)
}

func TestDecrementHopCount(t *testing.T) {
	tests := []struct {
		in       uint8
		wantOut  uint8
		wantOK   bool
	}{
		{0, 0, false},
		{1, 0, true},
		{6, 5, true},
		{7, 7, true},
	}
	for _, tt := range tests {
		out, ok := DecrementHopCount(tt.in)
		assert.Equal(t, tt.wantOK, ok, "in=%d", tt.in)
		if ok {
			assert.Equal(t, tt.wantOut, out, "in=%d", tt.in)
		}
	}
}

func TestPollDataFrameRoundTrip(t *testing.T) {
	req := PollDataFrame{
		MessageCode: MCLPollDataReq,
		Control2:    ControlField2{AddressType: AddressGroup, HopCount: 6},
		Destination: 0x0901,
		NumSlots:    10,
	}
	encoded, err := req.Encode()
	require.NoError(t, err)
	decoded, err := DecodePollDataFrame(encoded, MCLPollDataReq)
	require.NoError(t, err)
	assert.Equal(t, req.NumSlots, decoded.NumSlots)

	con := req
	con.MessageCode = MCLPollDataCon
	con.PollData = 9
	encoded, err = con.Encode()
	require.NoError(t, err)
	decoded, err = DecodePollDataFrame(encoded, MCLPollDataCon)
	require.NoError(t, err)
	assert.Equal(t, con.NumSlots, decoded.NumSlots)
	assert.Equal(t, con.PollData, decoded.PollData)
}

func TestPollDataFrameOutOfRange(t *testing.T) {
	f := PollDataFrame{MessageCode: MCLPollDataReq, NumSlots: 16}
	_, err := f.Encode()
	require.ErrorIs(t, err, ErrValueOutOfRange)

	f2 := PollDataFrame{MessageCode: MCLPollDataCon, PollData: 15}
	_, err = f2.Encode()
	require.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestRawFrameRoundTrip(t *testing.T) {
	f := RawFrame{MessageCode: MCLRawInd, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	encoded, err := f.Encode()
	require.NoError(t, err)
	decoded, err := DecodeRawFrame(encoded, MCLRawInd)
	require.NoError(t, err)
	assert.Equal(t, f.Payload, decoded.Payload)
}
