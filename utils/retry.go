package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do executes fn up to MaxAttempts times with exponential back-off between
// attempts. fn receives the zero-based attempt index so callers can loosen
// their conditions on later attempts. The wait is cut short when ctx ends.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func(attempt int) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := r.BaseDelay

	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt+1 < attempts {
			if r.Logger != nil {
				r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
					operationName, attempt+1, attempts, lastErr, delay)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted after %d attempts: %w", operationName, attempt+1, lastErr)
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}
