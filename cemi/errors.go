package cemi

import "errors"

// Domain errors returned by the cemi package. Callers should use
// errors.Is against these sentinels rather than matching message text.
var (
	// ErrInvalidMessageCode is returned when a frame's message-code byte
	// does not match the variant the decoder was asked to produce.
	ErrInvalidMessageCode = errors.New("cemi: invalid message code")

	// ErrTruncatedFrame is returned when a buffer ends before a
	// length declared within it has been satisfied.
	ErrTruncatedFrame = errors.New("cemi: truncated frame")

	// ErrInvalidAdditionalInfo is returned when an additional-information
	// TLV list overruns its declared length or a known type-id carries a
	// payload of the wrong size.
	ErrInvalidAdditionalInfo = errors.New("cemi: invalid additional information")

	// ErrValueOutOfRange is returned when a field (hop-count, num-slots,
	// poll-data, ...) is set outside the range the wire format allows.
	ErrValueOutOfRange = errors.New("cemi: value out of range")
)
