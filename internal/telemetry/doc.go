// Package telemetry samples a tunnelling session's or routing engine's
// counters on an interval and exposes them two ways: as Prometheus
// gauges served over HTTP, and as InfluxDB line-protocol points pushed
// through the official influxdb-client-go v2 client when
// config.InfluxDBConfig.Enabled is set.
//
// A Recorder owns exactly one of a *tunnel.Session or a *routing.Engine,
// mirroring the transport exclusivity internal/httpapi.Server enforces.
package telemetry
