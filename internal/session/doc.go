// Package session binds one appliance to the rest of the system.
//
// A Session owns a transport and everything above it: the reconnect
// loop with exponential backoff, topic subscriptions, the message
// pipeline, reachability tracking with debounced down transitions, the
// accumulated status snapshot (optionally restored from and persisted
// to the cache), and for vacuums the command state machine. Consumers
// interact through the facade: Status, Publish, SetTarget,
// WaitUntilInitialised, and the Events fan-out.
package session
