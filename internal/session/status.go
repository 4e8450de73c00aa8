package session

import (
	"context"
	"time"
)

// MQTTState is the session's lifecycle state with respect to status
// knowledge.
type MQTTState string

const (
	// MQTTStarting: no status known yet.
	MQTTStarting MQTTState = "starting"

	// MQTTStartingWithCache: serving a restored snapshot while waiting
	// for the appliance's first CURRENT-STATE.
	MQTTStartingWithCache MQTTState = "startingWithCache"

	// MQTTInitialised: a live CURRENT-STATE has been folded in.
	MQTTInitialised MQTTState = "initialised"

	// MQTTStopped: Stop was called.
	MQTTStopped MQTTState = "stopped"
)

// State returns the session's lifecycle state.
func (s *Session) State() MQTTState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a deep copy of the status snapshot, including the
// bookkeeping fields "reachable" and "mqttState". Callers may mutate
// the result freely.
func (s *Session) Status() map[string]any {
	s.mu.Lock()
	snapshot := deepCopyMap(s.status)
	snapshot["mqttState"] = string(s.state)
	s.mu.Unlock()

	snapshot["reachable"] = s.reach.Reachable()
	return snapshot
}

// WaitUntilInitialised blocks until the session has folded in a live
// CURRENT-STATE and the appliance is reachable, or — when a cached
// snapshot was restored — until fallbackDelay elapses, at which point
// the cached status is accepted as a working basis and nil is
// returned. Without a restored cache there is no fallback; the wait
// runs until initialisation or ctx cancellation.
//
// The reachable check matters for callers arriving late: a session
// initialised hours ago may currently be mid-outage, and such a caller
// waits for the device to come back rather than proceeding on stale
// truth.
//
// Parameters:
//   - ctx: bounds the wait.
//   - fallbackDelay: cache-acceptance delay; ignored when no cache was
//     restored. Zero or negative disables the fallback.
//
// Returns:
//   - error: nil once usable status exists; ErrStopped if the session
//     stops during the wait; else ctx.Err().
func (s *Session) WaitUntilInitialised(ctx context.Context, fallbackDelay time.Duration) error {
	s.mu.Lock()
	cached := s.cacheRestored
	s.mu.Unlock()

	var fallback <-chan time.Time
	if cached && fallbackDelay > 0 {
		timer := time.NewTimer(fallbackDelay)
		defer timer.Stop()
		fallback = timer.C
	}

	// Status events recheck the reachable half of the condition;
	// reachability transitions always publish one.
	events := s.bus.subscribe(EventStatus)
	defer s.bus.unsubscribe(events, EventStatus)

	for {
		select {
		case <-s.initialised:
			if s.reach.Reachable() {
				return nil
			}
			select {
			case _, ok := <-events:
				if !ok {
					return ErrStopped
				}
			case <-fallback:
				return s.acceptCachedStatus(fallbackDelay)
			case <-ctx.Done():
				return ctx.Err()
			}

		case <-fallback:
			return s.acceptCachedStatus(fallbackDelay)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) acceptCachedStatus(fallbackDelay time.Duration) error {
	s.logger.Warn("appliance not seen before fallback delay, continuing on cached status",
		"serial", s.serial,
		"delay", fallbackDelay.String())
	return nil
}

// deepCopyMap copies a snapshot recursively. Values are the JSON scalar
// types plus nested maps and slices.
func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return t
	}
}
