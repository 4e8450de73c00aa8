package cloud

import (
	"context"
	"time"
)

// Retry constants.
const (
	// retryFloor is the first wait between attempts.
	retryFloor = 1 * time.Second

	// retryCeiling caps the wait between attempts.
	retryCeiling = 5 * time.Minute
)

// Request runs fn until it succeeds, retrying transient failures with
// exponential backoff (1s doubling to a 5 minute ceiling) indefinitely.
// Unauthorized, not-found and rate-limited errors are fatal and
// returned immediately; the account API punishes blind retries of
// those far more than it punishes patience.
//
// Parameters:
//   - ctx: cancels the retry loop between attempts.
//   - op: short operation name for log lines.
//   - logger: attempt diagnostics; nil for none.
//   - fn: the attempt; called at least once.
//
// Returns:
//   - error: nil on success, a fatal API error, or ctx.Err().
func Request(ctx context.Context, op string, logger Logger, fn func(context.Context) error) error {
	if logger == nil {
		logger = noopLogger{}
	}

	wait := retryFloor
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if fatal(err) || ctx.Err() != nil {
			return err
		}

		logger.Warn("api request failed, retrying",
			"op", op,
			"attempt", attempt,
			"error", err,
			"retry_in", wait.String())

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		wait *= 2
		if wait > retryCeiling {
			wait = retryCeiling
		}
	}
}
