package message

import "errors"

// Domain-specific errors for the message pipeline.
// Use errors.Is() to check for these errors in calling code.
//
// All of these are fatal for the single offending message only; the
// session continues regardless.
var (
	// ErrMalformedPayload is returned when a payload is not valid JSON or
	// lacks the top-level shape of a protocol message.
	ErrMalformedPayload = errors.New("message: malformed payload")

	// ErrUnknownType is returned when a payload's type tag has no
	// registered schema for the device family.
	ErrUnknownType = errors.New("message: unknown message type")

	// ErrSchemaViolation is returned when a payload fails required-field
	// or type validation against its schema.
	ErrSchemaViolation = errors.New("message: schema violation")

	// ErrDuplicate is returned when a message is structurally identical
	// to the immediately preceding one and has been suppressed.
	ErrDuplicate = errors.New("message: duplicate suppressed")
)
