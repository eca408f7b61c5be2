package telemetry

import "errors"

// ErrMutuallyExclusiveSource indicates Deps set both or neither of
// Tunnel and Routing; a Recorder samples exactly one transport.
var ErrMutuallyExclusiveSource = errors.New("telemetry: exactly one of Tunnel or Routing is required")
