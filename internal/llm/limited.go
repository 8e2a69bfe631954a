package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited paces outbound calls. It never retries.
type Limited struct {
	next Client
	lim  *rate.Limiter
}

// NewLimited allows perMinute calls per minute with no burst beyond one.
// A non-positive perMinute returns c unchanged.
func NewLimited(c Client, perMinute int) Client {
	if perMinute <= 0 {
		return c
	}
	return &Limited{next: c, lim: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)}
}

func (l *Limited) Name() string { return l.next.Name() }

func (l *Limited) Complete(ctx context.Context, req Request) (Response, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return Response{}, err
	}
	return l.next.Complete(ctx, req)
}
