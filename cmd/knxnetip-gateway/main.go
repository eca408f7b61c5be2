// Command knxnetip-gateway is an example binary wiring this module's
// tunnelling and routing clients to an HTTP status/diagnostics API and
// WebSocket event stream.
//
// It reads its configuration from a YAML file (KNXNETIP_CONFIG, default
// "config.yaml") and environment overrides, connects to exactly one
// KNXnet/IP transport (tunnel or routing, per config.Config.Validate's
// mutual exclusion), optionally persists notable events to a sqlite
// audit log and samples counters into Prometheus/InfluxDB, and serves
// /api/v1 until it receives SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graylogic-labs/knxnetip/config"
	"github.com/graylogic-labs/knxnetip/internal/audit"
	"github.com/graylogic-labs/knxnetip/internal/db"
	"github.com/graylogic-labs/knxnetip/internal/httpapi"
	"github.com/graylogic-labs/knxnetip/internal/telemetry"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/migrations"
	"github.com/graylogic-labs/knxnetip/routing"
	"github.com/graylogic-labs/knxnetip/tunnel"
)

// Build-time version information, set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	fmt.Printf("knxnetip-gateway %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

const shutdownGrace = 5 * time.Second

func run(ctx context.Context) error {
	configPath := os.Getenv("KNXNETIP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := xlog.New(xlog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Component: "gateway",
	})

	var tunnelSess *tunnel.Session
	var routingEng *routing.Engine

	switch {
	case cfg.Tunnel.Enabled:
		tunnelSess, err = tunnel.Connect(ctx, tunnel.Config{
			Gateway:          cfg.Tunnel.Gateway,
			Mode:             tunnelMode(cfg.Tunnel.Mode),
			ConnectTimeout:   time.Duration(cfg.Tunnel.ConnectTimeout) * time.Second,
			AckTimeout:       time.Duration(cfg.Tunnel.AckTimeout) * time.Second,
			HeartbeatPeriod:  time.Duration(cfg.Tunnel.HeartbeatPeriod) * time.Second,
			HeartbeatTimeout: time.Duration(cfg.Tunnel.HeartbeatTimeout) * time.Second,
			HeartbeatStrikes: cfg.Tunnel.HeartbeatStrikes,
			Logger:           logger.With("component", "tunnel"),
		})
		if err != nil {
			return fmt.Errorf("connecting tunnel: %w", err)
		}
	case cfg.Routing.Enabled:
		routingEng, err = routing.Connect(ctx, routing.Config{
			MulticastAddr:     cfg.Routing.MulticastAddr,
			Port:              cfg.Routing.Port,
			MulticastTTL:      cfg.Routing.MulticastTTL,
			QueueCapacity:     cfg.Routing.QueueCapacity,
			IndividualAddress: cfg.Routing.IndividualAddress,
			FriendlyName:      cfg.Routing.FriendlyName,
			Logger:            logger.With("component", "routing"),
		})
		if err != nil {
			return fmt.Errorf("connecting routing engine: %w", err)
		}
	default:
		return fmt.Errorf("neither tunnel nor routing is enabled in config")
	}

	var auditRepo audit.Repository
	var auditDB *db.DB
	var auditRecorder *audit.Recorder
	if cfg.Audit.Enabled {
		auditDB, err = db.Open(cfg.Audit)
		if err != nil {
			return fmt.Errorf("opening audit database: %w", err)
		}
		migrateCtx, migrateCancel := context.WithTimeout(ctx, shutdownGrace)
		err = auditDB.Migrate(migrateCtx, migrations.All)
		migrateCancel()
		if err != nil {
			return fmt.Errorf("migrating audit database: %w", err)
		}

		sqliteRepo := audit.NewSQLiteRepository(auditDB.DB)
		auditRepo = sqliteRepo
		auditRecorder, err = audit.NewRecorder(audit.Deps{
			Repo: sqliteRepo, SiteID: cfg.Site.ID,
			Logger: logger.With("component", "audit"), Tunnel: tunnelSess, Routing: routingEng,
		})
		if err != nil {
			return fmt.Errorf("building audit recorder: %w", err)
		}
		auditRecorder.Start(ctx)
	}

	recorder, err := telemetry.NewRecorder(telemetry.Deps{
		InfluxDB: cfg.InfluxDB,
		SiteID:   cfg.Site.ID,
		Logger:   logger.With("component", "telemetry"),
		Tunnel:   tunnelSess,
		Routing:  routingEng,
	})
	if err != nil {
		return fmt.Errorf("building telemetry recorder: %w", err)
	}
	if err := recorder.Start(ctx); err != nil {
		return fmt.Errorf("starting telemetry recorder: %w", err)
	}

	apiServer, err := httpapi.New(httpapi.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   logger.With("component", "httpapi"),
		Version:  version,
		SiteID:   cfg.Site.ID,
		Tunnel:   tunnelSess,
		Routing:  routingEng,
		Metrics:  recorder.Handler(),
		Audit:    auditRepo,
	})
	if err != nil {
		return fmt.Errorf("building http api: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting http api: %w", err)
	}

	logger.Info("gateway started", "site_id", cfg.Site.ID, "api_addr", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := apiServer.Close(); err != nil {
		logger.Error("http api shutdown error", "error", err)
	}
	if err := recorder.Close(); err != nil {
		logger.Error("telemetry recorder shutdown error", "error", err)
	}
	if auditRecorder != nil {
		if err := auditRecorder.Close(); err != nil {
			logger.Error("audit recorder shutdown error", "error", err)
		}
	}
	if auditDB != nil {
		if err := auditDB.Close(); err != nil {
			logger.Error("audit database shutdown error", "error", err)
		}
	}
	if tunnelSess != nil {
		if err := tunnelSess.Disconnect(shutdownCtx); err != nil {
			logger.Error("tunnel disconnect error", "error", err)
		}
	}
	if routingEng != nil {
		if err := routingEng.Disconnect(shutdownCtx); err != nil {
			logger.Error("routing disconnect error", "error", err)
		}
	}

	logger.Info("gateway stopped")
	return nil
}

func tunnelMode(mode string) tunnel.Mode {
	if mode == "tcp" {
		return tunnel.ModeTCP
	}
	return tunnel.ModeUDP
}
