package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/graylogic-labs/knxnetip/internal/audit"
)

// handleHealth reports liveness only — it never touches the transport,
// so it stays fast and cheap for a monitoring poller.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime_s": int(time.Since(s.startTime).Seconds()),
	})
}

// handleStatus reports the active transport's connection state and
// telegram counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"site_id": s.siteID,
		"version": s.version,
	}

	switch {
	case s.tunnelSess != nil:
		stats := s.tunnelSess.Stats()
		resp["transport"] = "tunnel"
		resp["state"] = s.tunnelSess.State().String()
		resp["telegrams_tx"] = stats.TelegramsTx
		resp["telegrams_rx"] = stats.TelegramsRx
		resp["errors"] = stats.Errors
	case s.routingEng != nil:
		stats := s.routingEng.Stats()
		resp["transport"] = "routing"
		resp["telegrams_tx"] = stats.TelegramsTx
		resp["telegrams_rx"] = stats.TelegramsRx
		resp["queue_overflows"] = stats.QueueOverflows
		resp["lost_to_ip"] = stats.LostToIP
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDiscover reports this gateway instance's site ID and version.
// It does not perform a live bus scan, and it does not include the KNX
// individual address or friendly name advertised over SEARCH_RESPONSE.
func (s *Server) handleDiscover(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"site_id": s.siteID,
		"version": s.version,
	})
}

// handleAdminDisconnect tears down the active transport's connection on
// operator request. The caller is responsible for reconnecting (this
// binary does not auto-reconnect after an explicit admin disconnect).
func (s *Server) handleAdminDisconnect(w http.ResponseWriter, r *http.Request) {
	var err error
	switch {
	case s.tunnelSess != nil:
		err = s.tunnelSess.Disconnect(r.Context())
	case s.routingEng != nil:
		err = s.routingEng.Disconnect(r.Context())
	default:
		writeError(w, http.StatusServiceUnavailable, "no active transport")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "disconnected"})
}

// handleAdminAudit lists persisted audit events, filterable by action
// and transport and paginated via limit/offset query params.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:    q.Get("action"),
		Transport: q.Get("transport"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
