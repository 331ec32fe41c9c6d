package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type BackfillFinishedPayload struct {
	JobID      string    `json:"job_id"`
	UserID     string    `json:"user_id"`
	BusinessID string    `json:"business_id"`
	Status     string    `json:"status"`
	DryRun     bool      `json:"dry_run"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishBackfillFinished(ctx context.Context, payload BackfillFinishedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal backfill event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.New().String(),
			Timestamp:    payload.FinishedAt,
			Type:         "backfill.finished",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish backfill event: %w", err)
	}
	return nil
}
