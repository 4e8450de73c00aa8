// Package message implements the inbound message pipeline: parsing,
// key normalization, schema validation and deduplication.
//
// The appliances speak a JSON protocol whose key names use dash or
// space separators on the wire ("battery-charge-level"). The pipeline
// rewrites keys to camelCase on ingress so the rest of the system deals
// with one convention. The command-echo topic is exempt: those payloads
// are our own publishes reflected back and are inspected verbatim.
//
// Each device family registers a JSON Schema per message type. A
// payload failing required-field or type checks is dropped (the session
// survives); a payload carrying extra undeclared fields is used anyway
// with a warning, since firmware updates add fields routinely.
//
// # Validation severity
//
//   - not JSON / no type tag: drop, log with payload
//   - unknown type tag: drop
//   - missing or mistyped declared field: drop
//   - extra undeclared field: warn, keep
//   - structural duplicate of previous message: suppress silently
package message
