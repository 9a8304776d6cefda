package browser

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle makes every Open wait for limiter first. A nil limiter disables
// throttling.
func Throttle(next Opener, limiter *rate.Limiter) Opener {
	if limiter == nil {
		return next
	}
	return &throttled{next: next, limiter: limiter}
}

// NewLimiter returns a limiter allowing perSecond opens with a burst of one,
// or nil when perSecond is not positive.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

type throttled struct {
	next    Opener
	limiter *rate.Limiter
}

func (t *throttled) Open(ctx context.Context, url string) (Page, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}
	return t.next.Open(ctx, url)
}
