// Package audit persists notable transport events — lost messages,
// queue overflows, ROUTING_BUSY throttling, connection errors — to a
// SQLite-backed audit_events table, and serves them back out through a
// filterable, paginated query.
//
// Recorder subscribes to exactly one of tunnel.Session or routing.Engine
// and writes a row for each event worth keeping; it drops the rest
// (Connected and routine Indications are not audited,
// since those are covered by the WebSocket event stream instead).
package audit
