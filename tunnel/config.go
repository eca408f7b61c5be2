package tunnel

import (
	"time"

	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/knxip"
)

// Mode selects the tunnelling transport.
type Mode int

const (
	ModeUDP Mode = iota
	ModeTCP
)

// Timing defaults for a tunnelling session.
const (
	DefaultConnectTimeout   = 5 * time.Second
	DefaultConnectBackoff   = 15 * time.Second
	DefaultAckTimeout       = 1 * time.Second
	DefaultHeartbeatPeriod  = 60 * time.Second
	DefaultHeartbeatTimeout = 10 * time.Second
	DefaultHeartbeatStrikes = 3
	DefaultDisconnectWait   = 1 * time.Second
	DefaultFeatureTimeout   = 3 * time.Second
)

// Config configures a tunnelling Session.
type Config struct {
	// Gateway is the "host:port" of the KNXnet/IP gateway, e.g.
	// "192.168.0.10:3671".
	Gateway string

	// Mode selects UDP (default) or TCP transport.
	Mode Mode

	// ConnectionType selects tunnel (default) or device-management.
	ConnectionType knxip.ConnectionType

	// Layer selects the tunnel link layer for tunnel connections.
	Layer knxip.TunnelLayer

	ConnectTimeout   time.Duration
	AckTimeout       time.Duration
	HeartbeatPeriod  time.Duration
	HeartbeatTimeout time.Duration
	HeartbeatStrikes int
	DisconnectWait   time.Duration
	FeatureTimeout   time.Duration

	// EventBufferSize is the per-subscriber channel capacity for
	// Session.Subscribe. Defaults to 32.
	EventBufferSize int

	Logger *xlog.Logger
}

// withDefaults returns a copy of cfg with zero-valued fields replaced
// by their defaults.
func (cfg Config) withDefaults() Config {
	if cfg.ConnectionType == 0 {
		cfg.ConnectionType = knxip.TunnelConnection
	}
	if cfg.Layer == 0 {
		cfg.Layer = knxip.TunnelLinkLayer
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	if cfg.HeartbeatPeriod == 0 {
		cfg.HeartbeatPeriod = DefaultHeartbeatPeriod
	}
	if cfg.HeartbeatTimeout == 0 {
		cfg.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if cfg.HeartbeatStrikes == 0 {
		cfg.HeartbeatStrikes = DefaultHeartbeatStrikes
	}
	if cfg.DisconnectWait == 0 {
		cfg.DisconnectWait = DefaultDisconnectWait
	}
	if cfg.FeatureTimeout == 0 {
		cfg.FeatureTimeout = DefaultFeatureTimeout
	}
	if cfg.EventBufferSize == 0 {
		cfg.EventBufferSize = 32
	}
	if cfg.Logger == nil {
		cfg.Logger = xlog.Default()
	}
	return cfg
}
