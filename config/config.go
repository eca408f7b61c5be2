// Package config loads the YAML-driven configuration for the
// knxnetip-gateway example binary: which gateway to dial, how the HTTP
// API is exposed, and where telemetry and audit data go.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the gateway binary.
// All configuration is loaded from YAML; a few fields can be overridden
// by environment variables (see Load).
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Tunnel    TunnelConfig    `yaml:"tunnel"`
	Routing   RoutingConfig   `yaml:"routing"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig identifies the installation this gateway instance serves.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// TunnelConfig configures the KNXnet/IP tunnelling client.
type TunnelConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Gateway          string `yaml:"gateway"`
	Mode             string `yaml:"mode"` // "udp" or "tcp"
	ConnectTimeout   int    `yaml:"connect_timeout"`
	AckTimeout       int    `yaml:"ack_timeout"`
	HeartbeatPeriod  int    `yaml:"heartbeat_period"`
	HeartbeatTimeout int    `yaml:"heartbeat_timeout"`
	HeartbeatStrikes int    `yaml:"heartbeat_strikes"`
}

// RoutingConfig configures the KNXnet/IP routing engine.
type RoutingConfig struct {
	Enabled          bool   `yaml:"enabled"`
	MulticastAddr    string `yaml:"multicast_addr"`
	Port             int    `yaml:"port"`
	MulticastTTL     int    `yaml:"multicast_ttl"`
	QueueCapacity    int    `yaml:"queue_capacity"`
	IndividualAddress string `yaml:"individual_address"`
	FriendlyName     string `yaml:"friendly_name"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains event-stream WebSocket settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB telemetry export settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds; also the stats-sample period
}

// AuditConfig contains sqlite audit-log settings.
type AuditConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"` // seconds
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SecurityConfig contains HTTP API security settings.
type SecurityConfig struct {
	JWT   JWTConfig   `yaml:"jwt"`
	Admin AdminConfig `yaml:"admin"`
}

// JWTConfig contains JWT token settings for the admin API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// AdminConfig holds the single operator credential used to obtain an
// admin JWT from the HTTP API. PasswordHash is an Argon2id PHC string
// produced by internal/httpapi's HashPassword, never a plaintext
// password.
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// The environment variables read are KNXNETIP_TUNNEL_GATEWAY,
// KNXNETIP_ROUTING_MULTICAST_ADDR, KNXNETIP_API_HOST,
// KNXNETIP_INFLUXDB_TOKEN and KNXNETIP_JWT_SECRET; no other field has an
// environment override.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{ID: "site-001", Name: "KNXnet/IP Gateway"},
		Tunnel: TunnelConfig{
			Mode:             "udp",
			ConnectTimeout:   5,
			AckTimeout:       1,
			HeartbeatPeriod:  60,
			HeartbeatTimeout: 10,
			HeartbeatStrikes: 3,
		},
		Routing: RoutingConfig{
			MulticastAddr: "224.0.23.12",
			Port:          3671,
			MulticastTTL:  128,
			QueueCapacity: 50,
			FriendlyName:  "KNXnet/IP Gateway",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Audit: AuditConfig{
			Path:        "knxnetip-audit.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Security: SecurityConfig{
			JWT:   JWTConfig{AccessTokenTTL: 15},
			Admin: AdminConfig{Username: "admin"},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern
// KNXNETIP_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KNXNETIP_TUNNEL_GATEWAY"); v != "" {
		cfg.Tunnel.Gateway = v
	}
	if v := os.Getenv("KNXNETIP_ROUTING_MULTICAST_ADDR"); v != "" {
		cfg.Routing.MulticastAddr = v
	}
	if v := os.Getenv("KNXNETIP_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("KNXNETIP_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("KNXNETIP_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Tunnel.Enabled && c.Routing.Enabled {
		errs = append(errs, "tunnel and routing cannot both be enabled: choose one transport")
	}
	if c.Tunnel.Enabled && c.Tunnel.Gateway == "" {
		errs = append(errs, "tunnel.gateway is required when tunnel.enabled is true")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set KNXNETIP_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ReadTimeout returns the API read timeout as a Duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
