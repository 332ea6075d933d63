package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/ingest"
	"github.com/pscheid92/textpulse/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	scoreTextFn     func(text string) (ingest.Analysis, error)
	ingestOneFn     func(ctx context.Context, userID, text string) (*domain.AnalysisRecord, error)
	ingestCSVFn     func(ctx context.Context, userID string, r io.Reader) (*domain.BatchResult, error)
	listRecordsFn   func(ctx context.Context, userID string, query domain.ListQuery) ([]*domain.AnalysisRecord, error)
	statsFn         func(ctx context.Context, userID string) (domain.StatsResult, error)
	trendsFn        func(ctx context.Context, userID string, days int) ([]domain.TrendPoint, error)
	keywordsFn      func(ctx context.Context, userID string, limit int) ([]domain.KeywordCount, error)
	deleteRecordFn  func(ctx context.Context, userID string, id uuid.UUID) error
	exportCSVFn     func(ctx context.Context, userID string) ([]byte, error)
	archiveExportFn func(ctx context.Context, userID string) (string, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockAppService) ScoreText(text string) (ingest.Analysis, error) {
	if m.scoreTextFn != nil {
		return m.scoreTextFn(text)
	}
	return ingest.Analysis{}, errNotImplemented
}

func (m *mockAppService) IngestOne(ctx context.Context, userID, text string) (*domain.AnalysisRecord, error) {
	if m.ingestOneFn != nil {
		return m.ingestOneFn(ctx, userID, text)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) IngestCSV(ctx context.Context, userID string, r io.Reader) (*domain.BatchResult, error) {
	if m.ingestCSVFn != nil {
		return m.ingestCSVFn(ctx, userID, r)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) ListRecords(ctx context.Context, userID string, query domain.ListQuery) ([]*domain.AnalysisRecord, error) {
	if m.listRecordsFn != nil {
		return m.listRecordsFn(ctx, userID, query)
	}
	return []*domain.AnalysisRecord{}, nil
}

func (m *mockAppService) Stats(ctx context.Context, userID string) (domain.StatsResult, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID)
	}
	return domain.StatsResult{}, nil
}

func (m *mockAppService) Trends(ctx context.Context, userID string, days int) ([]domain.TrendPoint, error) {
	if m.trendsFn != nil {
		return m.trendsFn(ctx, userID, days)
	}
	return []domain.TrendPoint{}, nil
}

func (m *mockAppService) Keywords(ctx context.Context, userID string, limit int) ([]domain.KeywordCount, error) {
	if m.keywordsFn != nil {
		return m.keywordsFn(ctx, userID, limit)
	}
	return []domain.KeywordCount{}, nil
}

func (m *mockAppService) DeleteRecord(ctx context.Context, userID string, id uuid.UUID) error {
	if m.deleteRecordFn != nil {
		return m.deleteRecordFn(ctx, userID, id)
	}
	return nil
}

func (m *mockAppService) ExportCSV(ctx context.Context, userID string) ([]byte, error) {
	if m.exportCSVFn != nil {
		return m.exportCSVFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) ArchiveExport(ctx context.Context, userID string) (string, error) {
	if m.archiveExportFn != nil {
		return m.archiveExportFn(ctx, userID)
	}
	return "", domain.ErrExportUnavailable
}

// --- Test helpers ---

const (
	testUserHeader = "X-User-ID"
	testUserID     = "user-1"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		CORSOrigins:    "*",
		IdentityHeader: testUserHeader,
		MaxUploadBytes: 1 << 20,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		echo:   echo.New(),
		config: testConfig(),
		app:    app,
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withConfig(mutate func(*config.Config)) func(*Server) {
	return func(s *Server) {
		mutate(s.config)
	}
}

// serve runs req through the full middleware stack.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

// authed returns a request carrying the test principal.
func authed(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(testUserHeader, testUserID)
	return req
}
