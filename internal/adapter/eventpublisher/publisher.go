package eventpublisher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/domain"
)

const (
	SubjectCreated = "analysis.created"
	SubjectDeleted = "analysis.deleted"
)

// Transport delivers an encoded event. *nats.Publisher implements it.
type Transport interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type createdRecord struct {
	ID           uuid.UUID        `json:"id"`
	Sentiment    domain.Sentiment `json:"sentiment"`
	Polarity     float64          `json:"polarity"`
	Subjectivity float64          `json:"subjectivity"`
	Keywords     []string         `json:"keywords"`
	CreatedAt    time.Time        `json:"created_at"`
}

type createdEvent struct {
	UserID     string          `json:"user_id"`
	Count      int             `json:"count"`
	Records    []createdRecord `json:"records"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type deletedEvent struct {
	UserID     string    `json:"user_id"`
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher implements domain.EventPublisher on top of a Transport.
// A nil transport turns every publish into a no-op.
type EventPublisher struct {
	transport Transport
	clock     clockwork.Clock
	metrics   *metrics.EventMetrics
}

func New(transport Transport, clock clockwork.Clock, m *metrics.EventMetrics) *EventPublisher {
	return &EventPublisher{transport: transport, clock: clock, metrics: m}
}

func (ep *EventPublisher) PublishCreated(ctx context.Context, userID string, records []*domain.AnalysisRecord) error {
	if ep.transport == nil || len(records) == 0 {
		return nil
	}

	event := createdEvent{
		UserID:     userID,
		Count:      len(records),
		Records:    make([]createdRecord, 0, len(records)),
		OccurredAt: ep.clock.Now().UTC(),
	}
	for _, r := range records {
		event.Records = append(event.Records, createdRecord{
			ID:           r.ID,
			Sentiment:    r.Sentiment,
			Polarity:     r.Polarity,
			Subjectivity: r.Subjectivity,
			Keywords:     r.Keywords,
			CreatedAt:    r.CreatedAt,
		})
	}
	return ep.publish(ctx, SubjectCreated, event)
}

func (ep *EventPublisher) PublishDeleted(ctx context.Context, userID string, id uuid.UUID) error {
	if ep.transport == nil {
		return nil
	}
	return ep.publish(ctx, SubjectDeleted, deletedEvent{
		UserID:     userID,
		ID:         id,
		OccurredAt: ep.clock.Now().UTC(),
	})
}

func (ep *EventPublisher) publish(ctx context.Context, subject string, event any) error {
	if err := ep.transport.Publish(ctx, subject, event); err != nil {
		ep.metrics.RecordPublish(subject, "error")
		return err
	}
	ep.metrics.RecordPublish(subject, "success")
	return nil
}
