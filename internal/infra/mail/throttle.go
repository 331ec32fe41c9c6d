package mail

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type Sender interface {
	Send(ctx context.Context, msg entity.EmailMessage) (string, error)
}

// ThrottledSender caps the send rate of the wrapped sender. Waiting honours ctx.
type ThrottledSender struct {
	next    Sender
	limiter *rate.Limiter
}

func NewThrottledSender(next Sender, perSecond float64, burst int) *ThrottledSender {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &ThrottledSender{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (s *ThrottledSender) Send(ctx context.Context, msg entity.EmailMessage) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.next.Send(ctx, msg)
}
