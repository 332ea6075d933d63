package httpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/ingest"
	"github.com/pscheid92/textpulse/internal/platform/config"
)

type appService interface {
	ScoreText(text string) (ingest.Analysis, error)
	IngestOne(ctx context.Context, userID, text string) (*domain.AnalysisRecord, error)
	IngestCSV(ctx context.Context, userID string, r io.Reader) (*domain.BatchResult, error)
	ListRecords(ctx context.Context, userID string, query domain.ListQuery) ([]*domain.AnalysisRecord, error)
	Stats(ctx context.Context, userID string) (domain.StatsResult, error)
	Trends(ctx context.Context, userID string, days int) ([]domain.TrendPoint, error)
	Keywords(ctx context.Context, userID string, limit int) ([]domain.KeywordCount, error)
	DeleteRecord(ctx context.Context, userID string, id uuid.UUID) error
	ExportCSV(ctx context.Context, userID string) ([]byte, error)
	ArchiveExport(ctx context.Context, userID string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer builds the HTTP server. reg may be nil, which disables request
// metrics and the /metrics endpoint.
func NewServer(cfg *config.Config, app appService, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}
	if reg != nil {
		srv.httpMetrics = metrics.NewHTTPMetrics(reg)
		srv.metricsHandler = metrics.Handler(reg)
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
