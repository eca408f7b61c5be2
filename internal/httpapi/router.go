package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter assembles the chi router: global middleware, public
// status/discovery/health endpoints, the WebSocket upgrade, and a
// JWT-protected admin group.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/discover", s.handleDiscover)
		r.Get("/ws", s.handleWebSocket)

		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.adminAuthMiddleware)
			r.Post("/admin/disconnect", s.handleAdminDisconnect)
			if s.audit != nil {
				r.Get("/admin/audit", s.handleAdminAudit)
			}
		})
	})

	return r
}
