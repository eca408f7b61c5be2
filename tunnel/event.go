package tunnel

import "github.com/graylogic-labs/knxnetip/cemi"

// Event is the typed sum a Session publishes to its subscribers, replacing
// untyped event-emitter callbacks with a typed stream.
type Event interface{ tunnelEvent() }

// Connected is emitted once a CONNECT_RESPONSE with status 0x00 is
// accepted. IndividualAddress is the address the gateway assigned this
// session, parsed from the CRD when one was present.
type Connected struct {
	ChannelID         byte
	IndividualAddress string
}

// Disconnected is emitted whenever the session tears down, whether by
// caller request, peer-initiated disconnect, or a fatal error.
type Disconnected struct {
	Reason error // nil for a caller-requested, acknowledged disconnect
}

// Indication is a decoded inbound L_Data frame delivered to the
// consumer (not emitted for duplicate retransmissions).
type Indication struct {
	Frame cemi.DataFrame
}

// RawMessage carries an inbound frame's raw cEMI bytes alongside its
// decoded form, for consumers that want the wire bytes too.
type RawMessage struct {
	Bytes []byte
}

// FeatureInfo is emitted on an unsolicited TUNNELLING_FEATURE_INFO.
type FeatureInfo struct {
	FeatureID byte
	Value     []byte
}

// Error is emitted for non-fatal failures (malformed inbound frames,
// multicast send errors are not applicable here) that the session
// survives.
type Error struct {
	Err error
}

func (Connected) tunnelEvent()    {}
func (Disconnected) tunnelEvent() {}
func (Indication) tunnelEvent()   {}
func (RawMessage) tunnelEvent()   {}
func (FeatureInfo) tunnelEvent()  {}
func (Error) tunnelEvent()        {}
