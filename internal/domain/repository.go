package domain

import (
	"context"

	"github.com/google/uuid"
)

// ListQuery filters and pages a user's records, newest first.
// An empty Sentiment matches every label.
type ListQuery struct {
	Sentiment Sentiment
	Limit     int
	Skip      int
}

type AnalysisRepository interface {
	Insert(ctx context.Context, record *AnalysisRecord) error
	InsertMany(ctx context.Context, records []*AnalysisRecord) error
	List(ctx context.Context, userID string, query ListQuery) ([]*AnalysisRecord, error)
	ListAll(ctx context.Context, userID string) ([]*AnalysisRecord, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// SummaryCache stores per-user summaries. Implementations treat every failure
// as a miss; Invalidate reports errors so callers can log them.
type SummaryCache interface {
	Get(ctx context.Context, userID string) (*Summary, bool)
	Set(ctx context.Context, userID string, summary *Summary)
	Invalidate(ctx context.Context, userID string) error
}
