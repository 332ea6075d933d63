package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/ingest"
	"github.com/pscheid92/textpulse/internal/sentiment"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	repo      *mockRepo
	cache     *mockCache
	publisher *mockPublisher
	metrics   *metrics.IngestMetrics
	clock     *clockwork.FakeClock
}

func newFixture(t *testing.T, archiver domain.ExportArchiver) *fixture {
	t.Helper()
	f := &fixture{
		repo:      &mockRepo{},
		cache:     newMockCache(),
		publisher: &mockPublisher{},
		metrics:   metrics.NewIngestMetrics(prometheus.NewRegistry()),
		clock:     clockwork.NewFakeClockAt(testNow),
	}
	policy := ingest.NewPolicy(stubScorer{}, sentiment.NewClassifier(sentiment.DefaultStopwords()), f.clock, ingest.Options{Workers: 2})
	f.svc = NewService(f.repo, policy, f.cache, f.publisher, archiver, f.metrics, f.clock)
	return f
}

// --- ScoreText ---

func TestScoreText(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.ScoreText("Good pizza, good crust")
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentPositive, got.Sentiment)
	assert.Equal(t, []string{"good", "pizza", "crust"}, got.Keywords)
	assert.Empty(t, f.repo.records, "scoring must not persist")
}

func TestScoreText_Empty(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ScoreText("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

// --- IngestOne ---

func TestIngestOne(t *testing.T) {
	f := newFixture(t, nil)

	rec, err := f.svc.IngestOne(context.Background(), "user-1", "bad delivery service")
	require.NoError(t, err)

	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, domain.SentimentNegative, rec.Sentiment)
	assert.Equal(t, testNow, rec.CreatedAt)
	assert.Equal(t, []*domain.AnalysisRecord{rec}, f.repo.records)
	assert.Equal(t, []string{"user-1"}, f.cache.invalidated)
	require.Len(t, f.publisher.created, 1)
	assert.Equal(t, rec, f.publisher.created[0][0])
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RecordsCreated.WithLabelValues(modeSingle)), 0)
}

func TestIngestOne_EmptyInput(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.IngestOne(context.Background(), "user-1", " \n\t")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Empty(t, f.repo.records)
	assert.Empty(t, f.cache.invalidated)
}

func TestIngestOne_StoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.insertFn = func(context.Context, *domain.AnalysisRecord) error {
		return errors.New("connection refused")
	}

	_, err := f.svc.IngestOne(context.Background(), "user-1", "good")
	require.ErrorContains(t, err, "failed to store analysis")
	assert.Empty(t, f.cache.invalidated)
	assert.Empty(t, f.publisher.created)
}

func TestIngestOne_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("breaker open")
	f.cache.invalidErr = errors.New("redis down")

	rec, err := f.svc.IngestOne(context.Background(), "user-1", "good")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

// --- IngestBatch / IngestCSV ---

func TestIngestCSV(t *testing.T) {
	f := newFixture(t, nil)
	input := "id,review\n1,Good coffee\n2,   \n3,Bad coffee\n"

	result, err := f.svc.IngestCSV(context.Background(), "user-1", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "Good coffee", result.Records[0].Text)
	assert.Equal(t, "Bad coffee", result.Records[1].Text)
	assert.Equal(t, 1, f.repo.insertManyCalls)
	assert.Equal(t, []string{"user-1"}, f.cache.invalidated)
	require.Len(t, f.publisher.created, 1)
	assert.Len(t, f.publisher.created[0], 2)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.RecordsCreated.WithLabelValues(modeBatch)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RowsSkipped), 0)
}

func TestIngestCSV_NoHeader(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.IngestCSV(context.Background(), "user-1", strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrNoTextColumn)
	assert.Zero(t, f.repo.insertManyCalls)
}

func TestIngestCSV_Malformed(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.IngestCSV(context.Background(), "user-1", bytes.NewReader([]byte{'t', 'e', 'x', 't', '\n', 0xff}))
	assert.ErrorIs(t, err, ingest.ErrMalformedCSV)
}

func TestIngestBatch_AllBlankSkipsInsertAndEvents(t *testing.T) {
	f := newFixture(t, nil)
	table := &ingest.Table{Fields: []string{"text"}, Rows: []map[string]string{{"text": ""}, {"text": "  "}}}

	result, err := f.svc.IngestBatch(context.Background(), "user-1", table, ingest.BatchOptions{})
	require.NoError(t, err)

	assert.Zero(t, result.Accepted)
	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, f.repo.insertManyCalls)
	assert.Empty(t, f.publisher.created)
	assert.Empty(t, f.cache.invalidated)
}

func TestIngestBatch_StoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.insertManyFn = func(context.Context, []*domain.AnalysisRecord) error {
		return errors.New("copy failed")
	}
	table := &ingest.Table{Fields: []string{"text"}, Rows: []map[string]string{{"text": "good"}}}

	_, err := f.svc.IngestBatch(context.Background(), "user-1", table, ingest.BatchOptions{})
	require.ErrorContains(t, err, "failed to store batch")
	assert.Empty(t, f.publisher.created)
}

// --- ListRecords ---

func TestListRecords_NormalizesPaging(t *testing.T) {
	tests := []struct {
		name  string
		query domain.ListQuery
		want  domain.ListQuery
	}{
		{"defaults", domain.ListQuery{}, domain.ListQuery{Limit: DefaultListLimit}},
		{"capped", domain.ListQuery{Limit: 10_000, Skip: 3}, domain.ListQuery{Limit: MaxListLimit, Skip: 3}},
		{"negative skip", domain.ListQuery{Limit: 5, Skip: -1}, domain.ListQuery{Limit: 5}},
		{"filter kept", domain.ListQuery{Sentiment: domain.SentimentNeutral, Limit: 7}, domain.ListQuery{Sentiment: domain.SentimentNeutral, Limit: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.svc.ListRecords(context.Background(), "user-1", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.repo.lastQuery)
		})
	}
}

func TestListRecords_NewestFirstWithFilter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	first, err := f.svc.IngestOne(ctx, "user-1", "good one")
	require.NoError(t, err)
	_, err = f.svc.IngestOne(ctx, "user-1", "bad one")
	require.NoError(t, err)
	third, err := f.svc.IngestOne(ctx, "user-1", "good two")
	require.NoError(t, err)

	got, err := f.svc.ListRecords(ctx, "user-1", domain.ListQuery{Sentiment: domain.SentimentPositive})
	require.NoError(t, err)
	assert.Equal(t, []*domain.AnalysisRecord{third, first}, got)
}

// --- Aggregates ---

func TestStats_ComputesAndCaches(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.IngestOne(ctx, "user-1", "good")
	require.NoError(t, err)
	_, err = f.svc.IngestOne(ctx, "user-1", "bad")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatsResult{Total: 2, Positive: 1, Negative: 1}, stats)

	_, err = f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listAllCalls, "second read must be served from cache")
}

func TestStats_WriteInvalidatesSummary(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	stats, err := f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	_, err = f.svc.IngestOne(ctx, "user-1", "good")
	require.NoError(t, err)

	stats, err = f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestStats_LoadFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.listAllFn = func(context.Context, string) ([]*domain.AnalysisRecord, error) {
		return nil, errors.New("timeout")
	}

	_, err := f.svc.Stats(context.Background(), "user-1")
	require.ErrorContains(t, err, "failed to load analyses")
	_, cached := f.cache.Get(context.Background(), "user-1")
	assert.False(t, cached)
}

func TestSummary_ConcurrentMissesShareOneLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		release := make(chan struct{})
		f.repo.listAllFn = func(context.Context, string) ([]*domain.AnalysisRecord, error) {
			<-release
			return []*domain.AnalysisRecord{}, nil
		}

		var wg sync.WaitGroup
		for range 5 {
			wg.Go(func() {
				_, err := f.svc.Stats(context.Background(), "user-1")
				assert.NoError(t, err)
			})
		}

		synctest.Wait()
		close(release)
		wg.Wait()

		assert.Equal(t, 1, f.repo.listAllCalls)
	})
}

func TestSummary_WriteDuringLoadIsNotLost(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	f.repo.listAllFn = func(_ context.Context, userID string) ([]*domain.AnalysisRecord, error) {
		records := f.repo.snapshot(userID)
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return records, nil
	}

	earlier := make(chan domain.StatsResult, 1)
	go func() {
		stats, err := f.svc.Stats(ctx, "user-1")
		assert.NoError(t, err)
		earlier <- stats
	}()
	<-started

	_, err := f.svc.IngestOne(ctx, "user-1", "good")
	require.NoError(t, err)

	fresh, err := f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Total, "a read after the write must not join the earlier load")

	close(release)
	assert.Equal(t, 0, (<-earlier).Total)

	cached, ok := f.cache.Get(ctx, "user-1")
	require.True(t, ok)
	assert.Equal(t, 1, cached.Stats.Total, "the earlier load must not overwrite the cache")

	got, err := f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
}

func TestSummary_DeleteDuringLoadIsNotLost(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rec, err := f.svc.IngestOne(ctx, "user-1", "good")
	require.NoError(t, err)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	f.repo.listAllFn = func(_ context.Context, userID string) ([]*domain.AnalysisRecord, error) {
		records := f.repo.snapshot(userID)
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return records, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.svc.Stats(ctx, "user-1")
		assert.NoError(t, err)
	}()
	<-started

	require.NoError(t, f.svc.DeleteRecord(ctx, "user-1", rec.ID))
	close(release)
	<-done

	got, err := f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Total)
}

func TestSummary_CallerCancellationDoesNotFailSharedLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		release := make(chan struct{})
		f.repo.listAllFn = func(ctx context.Context, _ string) ([]*domain.AnalysisRecord, error) {
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []*domain.AnalysisRecord{}, nil
		}

		firstCtx, cancel := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := f.svc.Stats(firstCtx, "user-1")
			firstErr <- err
		}()
		synctest.Wait()

		secondErr := make(chan error, 1)
		go func() {
			_, err := f.svc.Stats(context.Background(), "user-1")
			secondErr <- err
		}()
		synctest.Wait()

		cancel()
		assert.ErrorIs(t, <-firstErr, context.Canceled)

		close(release)
		assert.NoError(t, <-secondErr)
		assert.Equal(t, 1, f.repo.listAllCalls)
	})
}

func TestTrends(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, text := range []string{"good", "bad", "meh"} {
		_, err := f.svc.IngestOne(ctx, "user-1", text)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	got, err := f.svc.Trends(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.TrendPoint{
		{Date: "2024-03-11", Negative: 1},
		{Date: "2024-03-12", Neutral: 1},
	}, got)
}

func TestTrends_OutOfRange(t *testing.T) {
	f := newFixture(t, nil)
	for _, days := range []int{0, -1, MaxTrendDays + 1} {
		_, err := f.svc.Trends(context.Background(), "user-1", days)
		assert.ErrorIs(t, err, domain.ErrOutOfRange, "days=%d", days)
	}
	assert.Zero(t, f.repo.listAllCalls)
}

func TestKeywords(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, text := range []string{"pizza crust", "pizza sauce", "sauce pizza"} {
		_, err := f.svc.IngestOne(ctx, "user-1", text)
		require.NoError(t, err)
	}

	got, err := f.svc.Keywords(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.KeywordCount{{Word: "pizza", Count: 3}, {Word: "sauce", Count: 2}}, got)

	_, err = f.svc.Keywords(ctx, "user-1", MaxKeywordLimit+1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

// --- DeleteRecord ---

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rec, err := f.svc.IngestOne(ctx, "user-1", "good")
	require.NoError(t, err)
	f.cache.invalidated = nil

	require.NoError(t, f.svc.DeleteRecord(ctx, "user-1", rec.ID))

	assert.Empty(t, f.repo.records)
	assert.Equal(t, []string{"user-1"}, f.cache.invalidated)
	assert.Equal(t, []uuid.UUID{rec.ID}, f.publisher.deleted)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RecordsDeleted), 0)
}

func TestDeleteRecord_OtherUsersRecordIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rec, err := f.svc.IngestOne(ctx, "owner", "good")
	require.NoError(t, err)
	f.cache.invalidated = nil

	err = f.svc.DeleteRecord(ctx, "intruder", rec.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.Len(t, f.repo.records, 1)
	assert.Empty(t, f.cache.invalidated)
	assert.Empty(t, f.publisher.deleted)

	assert.ErrorIs(t, f.svc.DeleteRecord(ctx, "owner", uuid.New()), domain.ErrRecordNotFound)
}

// --- Export ---

func TestExportCSV(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.IngestOne(ctx, "user-1", "good pizza, great crust")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.IngestOne(ctx, "user-1", "bad \"cold\" fries")
	require.NoError(t, err)

	data, err := f.svc.ExportCSV(ctx, "user-1")
	require.NoError(t, err)

	want := "text,sentiment,polarity,subjectivity,keywords,created_at\n" +
		"\"bad \"\"cold\"\" fries\",negative,-0.6,0.5,\"cold, fries\",2024-03-10T09:01:00Z\n" +
		"\"good pizza, great crust\",positive,0.6,0.5,\"good, pizza, great, crust\",2024-03-10T09:00:00Z\n"
	assert.Equal(t, want, string(data))
}

func TestExportCSV_SameInstantKeepsReverseInsertionOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, text := range []string{"first", "second", "third"} {
		_, err := f.svc.IngestOne(ctx, "user-1", text)
		require.NoError(t, err)
	}

	data, err := f.svc.ExportCSV(ctx, "user-1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "third,"))
	assert.True(t, strings.HasPrefix(lines[3], "first,"))
}

func TestExportCSV_CanBeReingested(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	texts := []string{"good pizza", "bad, \"burnt\" toast", "plain water"}
	for _, text := range texts {
		_, err := f.svc.IngestOne(ctx, "user-1", text)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	data, err := f.svc.ExportCSV(ctx, "user-1")
	require.NoError(t, err)

	result, err := f.svc.IngestCSV(ctx, "user-2", bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, len(texts), result.Accepted)

	for i, rec := range result.Records {
		assert.Equal(t, texts[len(texts)-1-i], rec.Text)
	}

	original, err := f.svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	copied, err := f.svc.Stats(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}

func TestArchiveExport(t *testing.T) {
	var gotKey string
	var gotData []byte
	archiver := &mockArchiver{archiveFn: func(_ context.Context, key string, data []byte) (string, error) {
		gotKey, gotData = key, data
		return "https://objects.example.com/" + key, nil
	}}
	f := newFixture(t, archiver)

	link, err := f.svc.ArchiveExport(context.Background(), "team/alice")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotKey, "exports/team%2Falice/20240310T090000Z-"), gotKey)
	assert.True(t, strings.HasSuffix(gotKey, ".csv"))
	assert.Equal(t, "https://objects.example.com/"+gotKey, link)
	assert.Equal(t, "text,sentiment,polarity,subjectivity,keywords,created_at\n", string(gotData))
}

func TestArchiveExport_NotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ArchiveExport(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrExportUnavailable)
}

func TestArchiveExport_UploadFailure(t *testing.T) {
	archiver := &mockArchiver{archiveFn: func(context.Context, string, []byte) (string, error) {
		return "", errors.New("bucket gone")
	}}
	f := newFixture(t, archiver)

	_, err := f.svc.ArchiveExport(context.Background(), "user-1")
	assert.ErrorContains(t, err, "failed to archive export")
}

func TestNewService_NilCollaborators(t *testing.T) {
	policy := ingest.NewPolicy(stubScorer{}, sentiment.NewClassifier(nil), clockwork.NewFakeClockAt(testNow), ingest.Options{})
	svc := NewService(&mockRepo{}, policy, nil, nil, nil, nil, clockwork.NewFakeClockAt(testNow))

	rec, err := svc.IngestOne(context.Background(), "user-1", "good")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRecord(context.Background(), "user-1", rec.ID))
}
