package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/oddsdesk/polypress/internal/logger"
)

// withRetry runs fn up to maxAttempts times total, sleeping delayBase before
// the second attempt and doubling the delay for each one after. A cancelled
// context stops the loop immediately; retries never outlive the caller's
// deadline.
func withRetry(ctx context.Context, maxAttempts int, delayBase time.Duration, fn func() (string, error)) (string, error) {
	var lastErr error
	delay := delayBase

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			logger.Debug("Retrying generation call (attempt %d/%d)", attempt, maxAttempts)
		}

		text, err := fn()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("Generation call failed (attempt %d/%d): %v", attempt, maxAttempts, err)
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", maxAttempts, lastErr)
}
