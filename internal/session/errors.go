package session

import "errors"

var (
	// ErrStopped indicates an operation on a session after Stop.
	ErrStopped = errors.New("session stopped")

	// ErrCommandsUnsupported indicates a target command was issued to a
	// device family without a command state machine.
	ErrCommandsUnsupported = errors.New("device family does not support target commands")
)
