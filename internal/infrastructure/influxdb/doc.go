// Package influxdb is the optional telemetry sink.
//
// It wraps the official influxdb-client-go v2 library: batched
// non-blocking writes, async error callback, ping-based health checks.
// The daemon feeds it numeric fields from session status snapshots
// (battery levels, sensor readings) so appliance history is queryable
// as time series. Disabled by default in configuration.
package influxdb
