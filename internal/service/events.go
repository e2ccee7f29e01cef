// Package service implements the template and email generation use cases on
// top of the store, search and generator packages.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/pkg/logger"
	"github.com/coldreach/email-generator/pkg/metrics"
)

// EventPublisher publishes audit events. The NATS stream manager satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.Event) (uint64, error)
}

// EventReader reads back published audit events.
type EventReader interface {
	Recent(ctx context.Context, eventType model.EventType, afterSequence uint64, limit int) (*model.ListEventsResponse, error)
}

// publish sends an event when a publisher is configured. Failures are logged
// and counted but never fail the operation that produced the event.
func publish(ctx context.Context, p EventPublisher, log *logger.Logger, event *model.Event) {
	if p == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.Must(uuid.NewV7()).String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	seq, err := p.Publish(ctx, event)
	if err != nil {
		metrics.RecordEventPublished(string(event.Type), "error")
		log.Warn("failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}
	metrics.RecordEventPublished(string(event.Type), "success")
	log.Debug("event published",
		zap.String("event_type", string(event.Type)),
		zap.Uint64("sequence", seq),
	)
}
