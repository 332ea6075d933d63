package domain

import (
	"context"

	"github.com/google/uuid"
)

// EventPublisher announces record lifecycle changes to other services.
type EventPublisher interface {
	PublishCreated(ctx context.Context, userID string, records []*AnalysisRecord) error
	PublishDeleted(ctx context.Context, userID string, id uuid.UUID) error
}

// ExportArchiver stores an export and returns a URL it can be downloaded from.
type ExportArchiver interface {
	Archive(ctx context.Context, key string, data []byte) (string, error)
}
