package cloud

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the account credentials were refused.
	// Never retried; retrying a bad password locks the account.
	ErrUnauthorized = errors.New("account credentials refused")

	// ErrNotFound indicates the requested resource does not exist on
	// the account (e.g. an unknown serial). Never retried.
	ErrNotFound = errors.New("resource not found on account")

	// ErrRateLimited indicates the API throttled the request. Not
	// retried; callers fall back to a cached credential when one
	// exists.
	ErrRateLimited = errors.New("api rate limited")

	// ErrNoCachedCredential indicates a rate-limited request had no
	// cached credential to fall back to.
	ErrNoCachedCredential = errors.New("rate limited with no cached credential")
)

// apiError carries the HTTP status of a failed API call, wrapping the
// sentinel that classifies it.
type apiError struct {
	status int
	op     string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: http status %d", e.op, e.status)
}

func (e *apiError) Unwrap() error {
	switch e.status {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	}
	return nil
}

// fatal reports whether an API error must not be retried.
func fatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRateLimited)
}
