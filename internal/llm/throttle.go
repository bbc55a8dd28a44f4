package llm

import (
	"context"

	"github.com/oddsdesk/polypress/internal/ratelimit"
)

// Throttled wraps a Completer and blocks each request on a per-key token
// bucket. Requests are keyed by system prompt, so each stage of the
// pipeline draws from its own bucket.
type Throttled struct {
	inner   Completer
	limiter *ratelimit.Limiter
}

// NewThrottled wraps c with the given limiter.
func NewThrottled(c Completer, l *ratelimit.Limiter) *Throttled {
	return &Throttled{inner: c, limiter: l}
}

func (t *Throttled) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx, system); err != nil {
		return "", err
	}
	return t.inner.Complete(ctx, system, prompt)
}
