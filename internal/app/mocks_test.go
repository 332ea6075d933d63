package app

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/sentiment"
)

// --- Mock implementations ---

// mockRepo keeps records in memory unless a function field overrides the call.
type mockRepo struct {
	mu      sync.Mutex
	records []*domain.AnalysisRecord

	insertFn     func(ctx context.Context, record *domain.AnalysisRecord) error
	insertManyFn func(ctx context.Context, records []*domain.AnalysisRecord) error
	listAllFn    func(ctx context.Context, userID string) ([]*domain.AnalysisRecord, error)
	deleteFn     func(ctx context.Context, userID string, id uuid.UUID) error

	insertManyCalls int
	listAllCalls    int
	lastQuery       domain.ListQuery
}

func (m *mockRepo) Insert(ctx context.Context, record *domain.AnalysisRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *mockRepo) InsertMany(ctx context.Context, records []*domain.AnalysisRecord) error {
	m.mu.Lock()
	m.insertManyCalls++
	m.mu.Unlock()
	if m.insertManyFn != nil {
		return m.insertManyFn(ctx, records)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *mockRepo) List(_ context.Context, userID string, query domain.ListQuery) ([]*domain.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = query

	var out []*domain.AnalysisRecord
	for _, r := range slices.Backward(m.records) {
		if r.UserID == userID && (query.Sentiment == "" || r.Sentiment == query.Sentiment) {
			out = append(out, r)
		}
	}
	if query.Skip >= len(out) {
		return []*domain.AnalysisRecord{}, nil
	}
	out = out[query.Skip:]
	if len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (m *mockRepo) ListAll(ctx context.Context, userID string) ([]*domain.AnalysisRecord, error) {
	m.mu.Lock()
	m.listAllCalls++
	m.mu.Unlock()
	if m.listAllFn != nil {
		return m.listAllFn(ctx, userID)
	}
	return m.snapshot(userID), nil
}

// snapshot returns userID's stored records in insertion order.
func (m *mockRepo) snapshot(userID string) []*domain.AnalysisRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.AnalysisRecord{}
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (m *mockRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id && r.UserID == userID {
			m.records = slices.Delete(m.records, i, i+1)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

type mockCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Summary
	invalidated []string
	invalidErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]*domain.Summary{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[userID]
	return s, ok
}

func (m *mockCache) Set(_ context.Context, userID string, summary *domain.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = summary
}

func (m *mockCache) Invalidate(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.invalidated = append(m.invalidated, userID)
	return m.invalidErr
}

type mockPublisher struct {
	mu      sync.Mutex
	created [][]*domain.AnalysisRecord
	deleted []uuid.UUID
	err     error
}

func (m *mockPublisher) PublishCreated(_ context.Context, _ string, records []*domain.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, records)
	return m.err
}

func (m *mockPublisher) PublishDeleted(_ context.Context, _ string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.err
}

type mockArchiver struct {
	archiveFn func(ctx context.Context, key string, data []byte) (string, error)
}

func (m *mockArchiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	return m.archiveFn(ctx, key, data)
}

// stubScorer scores "good" as positive and "bad" as negative.
type stubScorer struct{}

func (stubScorer) Score(text string) (domain.ScoreResult, error) {
	lower := strings.ToLower(text)
	polarity := 0.0
	switch {
	case strings.Contains(lower, "good"):
		polarity = 0.6
	case strings.Contains(lower, "bad"):
		polarity = -0.6
	}
	return domain.ScoreResult{Polarity: polarity, Subjectivity: 0.5, Tokens: sentiment.Tokenize(text)}, nil
}
