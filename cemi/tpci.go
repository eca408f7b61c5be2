package cemi

// TPCI is the 6-bit transport-layer command, stored pre-shifted into the
// high bits of byte 0 of a TPDU (bits 7-2; bits 1-0 are shared with the
// two high APCI bits and are cleared in the data constants). The
// control-only commands TPCIDisconnect, TPCIAck and TPCINak are full
// byte values whose bits 1-0 are set.
type TPCI byte

// Transport-layer commands the core needs. Connected-mode sequence
// numbers are folded into T_Ack/T_Nak via TPCIAckSeq/TPCINakSeq below;
// they are not otherwise interpreted by the cEMI/APDU codec.
const (
	// TPCIDataGroup is used for connectionless group and broadcast data
	// (the common case — GroupValue_Read/Response/Write telegrams).
	TPCIDataGroup TPCI = 0x00

	// TPCIDataIndividual is connectionless data addressed to an
	// individual address without an open transport connection.
	TPCIDataIndividual TPCI = 0x00

	// TPCIDataConnected is connection-oriented data; bits 5-2 carry the
	// 4-bit sequence number (see TPCIDataConnectedSeq).
	TPCIDataConnected TPCI = 0x40

	// TPCIConnect opens a transport-layer connection.
	TPCIConnect TPCI = 0x80

	// TPCIDisconnect closes a transport-layer connection.
	TPCIDisconnect TPCI = 0x81

	// TPCIAck acknowledges a connection-oriented frame; bits 5-2 carry
	// the sequence number being acknowledged (see TPCIAckSeq).
	TPCIAck TPCI = 0xC2

	// TPCINak negatively acknowledges a connection-oriented frame; bits
	// 5-2 carry the sequence number (see TPCINakSeq).
	TPCINak TPCI = 0xC3
)

// TPCIDataConnectedSeq returns TPCIDataConnected with the 4-bit sequence
// number (0-15) folded into bits 5-2.
func TPCIDataConnectedSeq(seq uint8) TPCI {
	return TPCIDataConnected | TPCI((seq&0xF)<<2)
}

// TPCIAckSeq returns TPCIAck with the 4-bit sequence number folded in.
func TPCIAckSeq(seq uint8) TPCI {
	return TPCIAck | TPCI((seq&0xF)<<2)
}

// TPCINakSeq returns TPCINak with the 4-bit sequence number folded in.
func TPCINakSeq(seq uint8) TPCI {
	return TPCINak | TPCI((seq&0xF)<<2)
}

// SequenceNumber extracts bits 5-2 from a connection-oriented TPCI byte.
func (t TPCI) SequenceNumber() uint8 {
	return uint8(t>>2) & 0xF
}
