package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/graylogic-labs/knxnetip/config"
	"github.com/graylogic-labs/knxnetip/internal/audit"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
	"github.com/graylogic-labs/knxnetip/routing"
	"github.com/graylogic-labs/knxnetip/tunnel"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight
// requests before forcing the listener closed.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the HTTP API server. Exactly
// one of Tunnel or Routing is expected to be set, matching the transport
// exclusivity config.Config.Validate enforces.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *xlog.Logger
	Version  string
	SiteID   string

	Tunnel  *tunnel.Session
	Routing *routing.Engine

	// Metrics, if set, is served at GET /metrics (Prometheus scrape
	// format). Typically internal/telemetry.Recorder's Handler().
	Metrics http.Handler

	// Audit, if set, backs GET /api/v1/admin/audit. Typically an
	// internal/audit.SQLiteRepository.
	Audit audit.Repository
}

// Server is the HTTP status/diagnostics API and WebSocket event relay
// for a single gateway instance.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	secCfg  config.SecurityConfig
	logger  *xlog.Logger
	version string
	siteID  string

	tunnelSess *tunnel.Session
	routingEng *routing.Engine

	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc
	group     *errgroup.Group
	metrics   http.Handler
	audit     audit.Repository
}

// New creates a Server from Deps. The server is not listening until
// Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("httpapi: logger is required")
	}
	if deps.Tunnel == nil && deps.Routing == nil {
		return nil, fmt.Errorf("httpapi: one of Tunnel or Routing is required")
	}
	if deps.Tunnel != nil && deps.Routing != nil {
		return nil, fmt.Errorf("httpapi: Tunnel and Routing are mutually exclusive")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		version:    deps.Version,
		siteID:     deps.SiteID,
		tunnelSess: deps.Tunnel,
		routingEng: deps.Routing,
		startTime:  time.Now(),
		hub:        NewHub(deps.WS, deps.Logger),
		metrics:    deps.Metrics,
		audit:      deps.Audit,
	}, nil
}

// Start builds the router, launches the WebSocket hub, event relay and
// listener as a group of goroutines, and begins listening. The three
// run under a single errgroup.Group so Close can wait for all of them
// to actually exit instead of firing cancellation and hoping.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	g, gctx := errgroup.WithContext(srvCtx)
	s.group = g

	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.relayEvents(gctx)
		return nil
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http api server error: %w", err)
		}
		return nil
	})

	return nil
}

// Close gracefully shuts down the HTTP listener, cancels the hub and
// event relay, and waits for all three goroutines Start launched to
// return.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("http api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http api server: %w", err)
	}

	if s.group != nil {
		if err := s.group.Wait(); err != nil {
			return fmt.Errorf("waiting for http api server group: %w", err)
		}
	}
	return nil
}

// relayEvents forwards the active transport's event stream onto the
// WebSocket hub under a fixed channel name, so browser clients can
// subscribe without knowing which transport is active.
func (s *Server) relayEvents(ctx context.Context) {
	switch {
	case s.tunnelSess != nil:
		id, ch := s.tunnelSess.Subscribe(32)
		defer s.tunnelSess.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				s.hub.Broadcast("transport", tunnelEventPayload(ev))
			}
		}
	case s.routingEng != nil:
		id, ch := s.routingEng.Subscribe(32)
		defer s.routingEng.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				s.hub.Broadcast("transport", routingEventPayload(ev))
			}
		}
	}
}
