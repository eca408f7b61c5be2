package routing

import (
	"time"

	"github.com/graylogic-labs/knxnetip/internal/xlog"
)

// Timing and sizing defaults for the routing engine.
const (
	DefaultMulticastAddr = "224.0.23.12"
	DefaultPort          = 3671
	DefaultMulticastTTL  = 128
	DefaultQueueCapacity = 50
	DefaultPaceInterval  = 20 * time.Millisecond
	DefaultBusyGapWindow = 10 * time.Millisecond
	DefaultBusyDecayUnit = 100 * time.Millisecond
	DefaultBusyTickEvery = 5 * time.Millisecond
)

// Config configures a routing Engine.
type Config struct {
	// MulticastAddr is the IPv4 multicast group to join, default
	// 224.0.23.12.
	MulticastAddr string

	// Port is the UDP port to bind, default 3671.
	Port int

	// MulticastTTL is the outbound multicast TTL, default 128.
	MulticastTTL int

	// QueueCapacity bounds the outbound send queue, default 50.
	QueueCapacity int

	// PaceInterval is the minimum gap between consecutive sends,
	// default 20ms.
	PaceInterval time.Duration

	// IndividualAddress, Serial, MAC, FriendlyName, ProjectInstallID
	// populate this node's device-information DIB for discovery
	// responses.
	IndividualAddress string
	Serial            [6]byte
	MAC               [6]byte
	FriendlyName      string
	ProjectInstallID  uint16

	// EventBufferSize is the per-subscriber channel capacity for
	// Engine.Subscribe. Defaults to 32.
	EventBufferSize int

	Logger *xlog.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.MulticastAddr == "" {
		cfg.MulticastAddr = DefaultMulticastAddr
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MulticastTTL == 0 {
		cfg.MulticastTTL = DefaultMulticastTTL
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.PaceInterval == 0 {
		cfg.PaceInterval = DefaultPaceInterval
	}
	if cfg.EventBufferSize == 0 {
		cfg.EventBufferSize = 32
	}
	if cfg.Logger == nil {
		cfg.Logger = xlog.Default()
	}
	return cfg
}
