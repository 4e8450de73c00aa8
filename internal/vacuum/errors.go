package vacuum

import "errors"

var (
	// ErrTargetRejected indicates the transition table disallows the
	// target in the appliance's current state.
	ErrTargetRejected = errors.New("target rejected in current state")

	// ErrConfirmTimeout indicates the command was published but no
	// status update confirmed it within the confirmation window.
	ErrConfirmTimeout = errors.New("command confirmation timed out")

	// ErrSuperseded indicates a newer target replaced this one before
	// it was confirmed.
	ErrSuperseded = errors.New("target superseded by a newer target")

	// ErrUnknownState indicates the appliance reported a state the
	// transition table does not know.
	ErrUnknownState = errors.New("unknown appliance state")
)
