// Package cemi implements the common External Message Interface frame
// format used as the payload of both KNXnet/IP tunnelling and routing:
// the two control-field bytes, the additional-information TLV list, the
// transport/application PDU (TPDU/APDU) bit-packing, and the L_Data,
// L_Poll_Data and L_Raw frame encoders/decoders built on top of them.
//
// Everything here is pure encoding/decoding — no I/O, no state machine.
// The tunnel and routing packages call into cemi to turn wire bytes into
// Frame values and back.
package cemi
