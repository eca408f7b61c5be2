package tunnel

import "errors"

// Sentinel errors a caller can match with errors.Is. Decode failures
// (cemi's Err* sentinels and knxip.ErrMalformed) are surfaced via decode
// calls in the cemi/knxip packages; the remainder originate here.
var (
	// ErrConnectTimeout is published as an Error event when no
	// CONNECT_RESPONSE arrives within the configured connect timeout; the
	// session then retries after DefaultConnectBackoff. Connect does not
	// return it and keeps waiting until its ctx is done.
	ErrConnectTimeout = errors.New("tunnel: connect timed out")

	// ErrConnectRejected is returned when a CONNECT_RESPONSE carries a
	// non-zero status.
	ErrConnectRejected = errors.New("tunnel: gateway rejected connection")

	// ErrAckTimeout is returned when a send's TUNNELLING_ACK does not
	// arrive after the initial attempt and one retry.
	ErrAckTimeout = errors.New("tunnel: acknowledgement timed out")

	// ErrHeartbeatFailed is returned (via a Disconnected event) after
	// three consecutive missed heartbeat responses.
	ErrHeartbeatFailed = errors.New("tunnel: heartbeat failed")

	// ErrClosed is returned by any operation attempted after the
	// session has transitioned to Closed.
	ErrClosed = errors.New("tunnel: session closed")

	// ErrFeatureTimeout is returned when a feature-get request receives
	// no TUNNELLING_FEATURE_RESPONSE within 3 s.
	ErrFeatureTimeout = errors.New("tunnel: feature-get timed out")

	// ErrFeatureRejected is returned when a TUNNELLING_FEATURE_RESPONSE
	// carries a non-zero status.
	ErrFeatureRejected = errors.New("tunnel: feature-get rejected")

	// ErrTransport wraps underlying socket I/O failures.
	ErrTransport = errors.New("tunnel: transport error")
)
