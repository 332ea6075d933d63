package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/aggregate"
	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/ingest"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
	MaxTrendDays     = 30
	MaxKeywordLimit  = 50

	modeSingle = "single"
	modeBatch  = "batch"

	summaryLoadTimeout = 30 * time.Second
)

// Service is the application layer. It is the only component that references
// multiple domain components and orchestrates all use cases.
type Service struct {
	repo         domain.AnalysisRepository
	policy       *ingest.Policy
	cache        domain.SummaryCache
	publisher    domain.EventPublisher
	archiver     domain.ExportArchiver
	metrics      *metrics.IngestMetrics
	clock        clockwork.Clock
	summaryGroup singleflight.Group

	// generations counts writes per user. A summary is only cached when no
	// write happened while it was being computed.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewService creates the application layer service. cache, publisher and
// archiver may be nil; a nil archiver makes ArchiveExport fail with
// domain.ErrExportUnavailable.
func NewService(repo domain.AnalysisRepository, policy *ingest.Policy, cache domain.SummaryCache, publisher domain.EventPublisher, archiver domain.ExportArchiver, m *metrics.IngestMetrics, clock clockwork.Clock) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Service{
		repo:        repo,
		policy:      policy,
		cache:       cache,
		publisher:   publisher,
		archiver:    archiver,
		metrics:     m,
		clock:       clock,
		generations: make(map[string]uint64),
	}
}

// ScoreText analyzes text without storing anything.
func (s *Service) ScoreText(text string) (ingest.Analysis, error) {
	return s.policy.Analyze(text)
}

// IngestOne analyzes text and stores the resulting record.
func (s *Service) IngestOne(ctx context.Context, userID, text string) (*domain.AnalysisRecord, error) {
	record, err := s.policy.NewRecord(userID, text)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}

	s.metrics.Created(modeSingle, 1)
	s.afterCreate(ctx, userID, []*domain.AnalysisRecord{record})
	return record, nil
}

// IngestCSV decodes a CSV upload and ingests its rows. Rows past the policy's
// row cap are not read.
func (s *Service) IngestCSV(ctx context.Context, userID string, r io.Reader) (*domain.BatchResult, error) {
	table, err := ingest.DecodeCSV(r, s.policy.RowCap())
	if err != nil {
		return nil, err
	}
	return s.IngestBatch(ctx, userID, table, ingest.BatchOptions{})
}

// IngestBatch analyzes the rows of table and stores every accepted record
// with one bulk insert.
func (s *Service) IngestBatch(ctx context.Context, userID string, table *ingest.Table, opts ingest.BatchOptions) (*domain.BatchResult, error) {
	start := s.clock.Now()

	result, err := s.policy.NewBatch(ctx, userID, table, opts)
	if err != nil {
		return nil, err
	}

	if len(result.Records) > 0 {
		if err := s.repo.InsertMany(ctx, result.Records); err != nil {
			return nil, fmt.Errorf("failed to store batch: %w", err)
		}
	}

	s.metrics.Created(modeBatch, result.Accepted)
	s.metrics.Skipped(result.Skipped)
	s.metrics.ObserveBatch(s.clock.Since(start))

	if len(result.Records) > 0 {
		s.afterCreate(ctx, userID, result.Records)
	}

	slog.InfoContext(ctx, "Batch ingested", "user_id", userID, "accepted", result.Accepted, "skipped", result.Skipped)
	return result, nil
}

// ListRecords returns one page of userID's records, newest first. A
// non-positive limit selects the default and larger limits are capped.
func (s *Service) ListRecords(ctx context.Context, userID string, query domain.ListQuery) ([]*domain.AnalysisRecord, error) {
	switch {
	case query.Limit <= 0:
		query.Limit = DefaultListLimit
	case query.Limit > MaxListLimit:
		query.Limit = MaxListLimit
	}
	query.Skip = max(query.Skip, 0)

	records, err := s.repo.List(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return records, nil
}

// DeleteRecord removes one of userID's records. Records owned by another user
// are reported as domain.ErrRecordNotFound.
func (s *Service) DeleteRecord(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.metrics.Deleted()
	s.invalidate(ctx, userID)
	if err := s.publisher.PublishDeleted(ctx, userID, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish deletion event", "user_id", userID, "id", id.String(), "error", err)
	}
	return nil
}

func (s *Service) afterCreate(ctx context.Context, userID string, records []*domain.AnalysisRecord) {
	s.invalidate(ctx, userID)
	if err := s.publisher.PublishCreated(ctx, userID, records); err != nil {
		slog.WarnContext(ctx, "Failed to publish creation event", "user_id", userID, "count", len(records), "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	s.genMu.Lock()
	s.generations[userID]++
	s.genMu.Unlock()
	s.summaryGroup.Forget(userID)

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate aggregate cache", "user_id", userID, "error", err)
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Summary, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *domain.Summary)        {}
func (noopCache) Invalidate(context.Context, string) error            { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishCreated(context.Context, string, []*domain.AnalysisRecord) error {
	return nil
}
func (noopPublisher) PublishDeleted(context.Context, string, uuid.UUID) error { return nil }

// summary returns userID's aggregate summary from the cache, computing it from
// the store on a miss. Concurrent misses for the same user share one load,
// which keeps running when the caller that started it goes away.
func (s *Service) summary(ctx context.Context, userID string) (*domain.Summary, error) {
	if summary, ok := s.cache.Get(ctx, userID); ok {
		return summary, nil
	}

	ch := s.summaryGroup.DoChan(userID, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryLoadTimeout)
		defer cancel()

		gen := s.generation(userID)
		records, err := s.repo.ListAll(loadCtx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load analyses: %w", err)
		}
		summary := aggregate.Summarize(records)
		s.storeSummary(loadCtx, userID, gen, summary)
		return summary, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Summary), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// storeSummary caches summary unless userID was written to after gen was read.
func (s *Service) storeSummary(ctx context.Context, userID string, gen uint64, summary *domain.Summary) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	if s.generations[userID] != gen {
		slog.DebugContext(ctx, "Discarding aggregate summary computed before a write", "user_id", userID)
		return
	}
	s.cache.Set(ctx, userID, summary)
}
