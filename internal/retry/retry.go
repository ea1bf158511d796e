// README: Bounded retry policy shared by collaborator calls.
package retry

import (
	"context"
	"errors"
	"fmt"
)

// ErrExhausted is returned once every allowed attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy runs an operation up to MaxAttempts times with no backoff.
// Retryable decides per failure whether another attempt is worthwhile;
// nil treats every failure as retryable.
type Policy struct {
	MaxAttempts int
	Retryable   func(error) bool
}

// Do calls fn with a 1-based attempt number until it succeeds, fails with a
// non-retryable error, the context ends, or attempts run out.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn(ctx, attempt)
		if last == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p.Retryable != nil && !p.Retryable(last) {
			return last
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, last)
}
