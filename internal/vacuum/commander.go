package vacuum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// confirmTimeout bounds how long a confirm-on-completion target waits
// for a status update that satisfies it.
const confirmTimeout = 5 * time.Second

// Publisher sends a command message to the appliance. Implemented by the
// session layer, which owns the topic and the wire envelope.
type Publisher interface {
	Publish(msgType string, params map[string]any) error
}

// Commander drives the vacuum towards caller-requested targets. It
// consults the transition table for each request, publishes the command
// it prescribes, and for confirm-on-completion targets waits until the
// appliance's reported state satisfies the target.
//
// Only one confirmation can be pending at a time: a newer target
// supersedes an older unconfirmed one, which then fails with
// ErrSuperseded.
type Commander struct {
	publisher Publisher

	// confirmWindow bounds each confirmation wait. Defaults to the
	// package constant.
	confirmWindow time.Duration

	mu          sync.Mutex
	state       State
	known       bool
	zoneCapable bool
	pulse       chan struct{}
	cancelPrev  context.CancelCauseFunc
}

// NewCommander returns a Commander publishing through the given
// Publisher. The appliance's state is unknown until the first Observe.
//
// Parameters:
//   - publisher: command sink, typically the device session.
//
// Returns:
//   - *Commander: ready for use.
func NewCommander(publisher Publisher) *Commander {
	return &Commander{
		publisher:     publisher,
		confirmWindow: confirmTimeout,
		pulse:         make(chan struct{}),
	}
}

// Observe records the appliance's latest reported state and wakes any
// pending confirmation wait. The session calls this for every status
// update that carries a state.
func (c *Commander) Observe(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state
	c.known = true
	close(c.pulse)
	c.pulse = make(chan struct{})
}

// SetZoneCapable records whether the appliance supports zone-configured
// cleans. Zone targets are rejected until this is set true.
func (c *Commander) SetZoneCapable(capable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoneCapable = capable
}

// State returns the last observed state and whether one has been
// observed at all.
func (c *Commander) State() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.known
}

// SetTarget requests that the appliance move to the given target.
//
// The transition table decides the outcome: the request may be rejected
// outright, satisfied already (no command sent), published
// fire-and-forget, or published and then held open until a status
// update confirms it. A newer SetTarget call cancels an older pending
// confirmation.
//
// Parameters:
//   - ctx: bounds the confirmation wait; cancellation abandons it.
//   - target: the requested target.
//
// Returns:
//   - error: nil on success; ErrTargetRejected, ErrConfirmTimeout,
//     ErrSuperseded, or ErrUnknownState on failure. Publish failures
//     are returned as-is.
func (c *Commander) SetTarget(ctx context.Context, target Target) error {
	c.mu.Lock()

	if !c.known {
		c.mu.Unlock()
		return ErrUnknownState
	}
	if target == TargetZoneClean && !c.zoneCapable {
		c.mu.Unlock()
		return fmt.Errorf("%w: zone cleaning not supported", ErrTargetRejected)
	}

	action := TargetAction(c.state, target)

	switch action.Kind {
	case ActionReject:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: %s in state %s", ErrTargetRejected, target, state)

	case ActionNoop:
		c.mu.Unlock()
		return nil

	case ActionFire:
		c.mu.Unlock()
		return c.publisher.Publish(action.Command, action.Params)
	}

	// Confirm-on-completion: supersede any pending wait, then publish
	// and hold until the reported state satisfies the target.
	if c.cancelPrev != nil {
		c.cancelPrev(ErrSuperseded)
	}
	waitCtx, cancel := context.WithCancelCause(ctx)
	c.cancelPrev = cancel
	c.mu.Unlock()

	// Release the wait context once the confirmation resolves either
	// way; a superseding call may already have cancelled it with its
	// own cause, which wins.
	defer cancel(nil)

	if err := c.publisher.Publish(action.Command, action.Params); err != nil {
		cancel(err)
		return err
	}

	return c.awaitTarget(waitCtx, target)
}

// awaitTarget blocks until the observed state satisfies the target, the
// confirmation window elapses, or the wait is cancelled.
func (c *Commander) awaitTarget(ctx context.Context, target Target) error {
	deadline := time.NewTimer(c.confirmWindow)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		satisfied := TargetAction(c.state, target).Kind == ActionNoop
		pulse := c.pulse
		c.mu.Unlock()

		if satisfied {
			return nil
		}

		select {
		case <-pulse:
			// Re-evaluate against the new state.

		case <-deadline.C:
			return fmt.Errorf("%w: %s after %s", ErrConfirmTimeout, target, c.confirmWindow)

		case <-ctx.Done():
			cause := context.Cause(ctx)
			if errors.Is(cause, ErrSuperseded) {
				return fmt.Errorf("%w: %s", ErrSuperseded, target)
			}
			return cause
		}
	}
}
