package routing

import "errors"

var (
	// ErrClosed is returned by any operation attempted after the engine
	// has been disconnected.
	ErrClosed = errors.New("routing: engine closed")

	// ErrTransport wraps underlying socket I/O failures.
	ErrTransport = errors.New("routing: transport error")

	// ErrHopCountZero is returned by Send when the frame's hop count is
	// already zero — the frame must be dropped, not routed.
	ErrHopCountZero = errors.New("routing: hop count exhausted")

	// ErrQueueOverflow is returned by Send when the bounded send queue
	// is already full; the frame is discarded and a ROUTING_LOST_MESSAGE
	// is multicast in its place.
	ErrQueueOverflow = errors.New("routing: send queue full")
)
