package usecase

import (
	"context"

	"github.com/xavierca1/ligue-reviews/internal/entity"
	"github.com/xavierca1/ligue-reviews/internal/infra/queue"
)

type EntitlementChecker interface {
	HasActivePro(ctx context.Context, userID string) (bool, error)
}

// CustomerSourceFactory builds a CRM client from the caller's stored credential.
type CustomerSourceFactory interface {
	NewSource(conn *entity.SquareConnection) entity.CustomerSource
}

type EmailSender interface {
	Send(ctx context.Context, msg entity.EmailMessage) (string, error)
}

type TemplateRenderer interface {
	ReviewRequestEmail(displayName, link string) (entity.EmailContent, error)
}

type QueueProducerInterface interface {
	PublishBackfillFinished(ctx context.Context, payload queue.BackfillFinishedPayload) error
}

type BackfillMetrics interface {
	ObserveCandidate(status, reason string)
	ObserveJob(status string)
}
