package routing

import "github.com/graylogic-labs/knxnetip/cemi"

// Event is the typed sum a routing Engine publishes to its subscribers.
type Event interface{ routingEvent() }

// Indication is a decoded inbound ROUTING_INDICATION.
type Indication struct {
	Frame cemi.DataFrame
}

// RawIndication carries an inbound ROUTING_INDICATION's raw cEMI bytes.
type RawIndication struct {
	Bytes []byte
}

// RoutingBusy is emitted whenever a ROUTING_BUSY is received and
// processed, whether or not it changes the busy-counter.
type RoutingBusy struct {
	WaitTime   uint16 // advertised wait-time, ms
	ControlField byte
	BusyCounter  int
}

// RoutingReady is emitted when a busy pause ends and sending resumes.
type RoutingReady struct{}

// LostMessage is emitted on an inbound ROUTING_LOST_MESSAGE.
type LostMessage struct {
	DeviceState byte
	LostCount   byte
}

// QueueOverflow is emitted when the bounded send queue is full and an
// outbound frame is discarded.
type QueueOverflow struct {
	DiscardedFrame []byte
}

// SystemBroadcast carries an opaque ROUTING_SYSTEM_BROADCAST body.
type SystemBroadcast struct {
	Body []byte
}

// Error is emitted for non-fatal failures (malformed inbound frames,
// multicast send errors) the engine survives.
type Error struct {
	Err error
}

func (Indication) routingEvent()      {}
func (RawIndication) routingEvent()   {}
func (RoutingBusy) routingEvent()     {}
func (RoutingReady) routingEvent()    {}
func (LostMessage) routingEvent()     {}
func (QueueOverflow) routingEvent()   {}
func (SystemBroadcast) routingEvent() {}
func (Error) routingEvent()           {}
