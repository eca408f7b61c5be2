// Package httpapi provides the HTTP status/diagnostics API and WebSocket
// event stream for the knxnetip-gateway example binary.
//
// It exposes a health check, a connection-status snapshot, a passive
// discovery summary, a Prometheus scrape endpoint, and a JWT-protected
// admin surface (transport disconnect, audit log listing), mirroring
// the lifecycle of the tunnel.Session/routing.Engine it sits in front of:
//
//	server, err := httpapi.New(deps)
//	if err != nil {
//	    return err
//	}
//	if err := server.Start(ctx); err != nil {
//	    return err
//	}
//	defer server.Close()
//
// Exactly one of Deps.Tunnel or Deps.Routing must be set, matching
// config.Config's enforced mutual exclusion between the two transports.
package httpapi
