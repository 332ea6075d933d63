package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/textpulse/internal/adapter/eventpublisher"
	"github.com/pscheid92/textpulse/internal/adapter/httpserver"
	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	natspub "github.com/pscheid92/textpulse/internal/adapter/nats"
	"github.com/pscheid92/textpulse/internal/adapter/objectstore"
	"github.com/pscheid92/textpulse/internal/adapter/postgres"
	"github.com/pscheid92/textpulse/internal/adapter/redis"
	"github.com/pscheid92/textpulse/internal/app"
	"github.com/pscheid92/textpulse/internal/domain"
	"github.com/pscheid92/textpulse/internal/ingest"
	"github.com/pscheid92/textpulse/internal/platform/config"
	"github.com/pscheid92/textpulse/internal/platform/logging"
	"github.com/pscheid92/textpulse/internal/platform/retry"
	"github.com/pscheid92/textpulse/internal/platform/version"
	"github.com/pscheid92/textpulse/internal/sentiment"
)

const (
	startupTimeout        = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
	cacheEvictionInterval = time.Minute
)

func logRetry(component string) func(attempt int, err error, backoff time.Duration) {
	return func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Connection attempt failed, retrying", "component", component, "attempt", attempt, "backoff", backoff, "error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) *pgxpool.Pool {
	tracer := postgres.NewMetricsTracer(metrics.NewDBMetrics(reg))

	pool, err := retry.Do(ctx, retry.Startup(logRetry("postgres")), retry.Transient, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	})
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		fatal("Failed to run migrations", err)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, bm *metrics.BreakerMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, aggregate cache is in-memory only")
		return nil
	}

	rm := metrics.NewRedisMetrics(reg)
	client, err := retry.Do(ctx, retry.Startup(logRetry("redis")), retry.Transient, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, rm, bm)
	})
	if err != nil {
		fatal("Failed to connect to Redis", err)
	}
	return client
}

func setupNATS(ctx context.Context, cfg *config.Config) *nats.Conn {
	if cfg.NATSURL == "" {
		slog.Info("NATS_URL not set, analysis events are disabled")
		return nil
	}

	nc, err := retry.Do(ctx, retry.Startup(logRetry("nats")), retry.Transient, func(context.Context) (*nats.Conn, error) {
		return natspub.Connect(cfg.NATSURL)
	})
	if err != nil {
		fatal("Failed to connect to NATS", err)
	}
	slog.Info("NATS connected", "url", nc.ConnectedUrl())
	return nc
}

func setupArchiver(ctx context.Context, cfg *config.Config, em *metrics.EventMetrics) domain.ExportArchiver {
	if !cfg.ObjectStoreEnabled() {
		slog.Info("MINIO_ENDPOINT not set, export archiving is disabled")
		return nil
	}

	archiver, err := objectstore.Dial(ctx, objectstore.Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
		Bucket:    cfg.MinIOBucket,
		URLExpiry: cfg.ExportURLExpiry,
	}, em)
	if err != nil {
		fatal("Failed to set up object store", err)
	}
	return archiver
}

func setupPolicy(cfg *config.Config, clock clockwork.Clock) *ingest.Policy {
	profile, err := ingest.LoadProfile(cfg.AnalysisProfile)
	if err != nil {
		fatal("Failed to load analysis profile", err)
	}

	scorer, ok := sentiment.NewScorer(cfg.Scorer)
	if !ok {
		fatal("Unknown scorer", fmt.Errorf("scorer %q", cfg.Scorer))
	}

	classifier := sentiment.NewClassifier(profile.EffectiveStopwords())
	return ingest.NewPolicy(scorer, classifier, clock, ingest.Options{
		TextColumns: profile.TextColumns,
		RowCap:      profile.RowCap,
		Workers:     cfg.IngestWorkers,
	})
}

func healthChecks(pool *pgxpool.Pool, rdb *goredis.Client, nc *nats.Conn) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}
	if rdb != nil {
		checks = append(checks, httpserver.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if nc != nil {
		checks = append(checks, httpserver.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if status := nc.Status(); status != nats.CONNECTED {
				return fmt.Errorf("nats connection is %s", status)
			}
			return nil
		}})
	}
	return checks
}

func runGracefulShutdown(srv *httpserver.Server, cleanup ...func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, fn := range cleanup {
			fn()
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version, "scorer", cfg.Scorer)

	reg := metrics.NewRegistry()
	breakerMetrics := metrics.NewBreakerMetrics(reg)
	eventMetrics := metrics.NewEventMetrics(reg)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	pool := setupDB(startupCtx, cfg, reg)
	defer pool.Close()

	rdb := setupRedis(startupCtx, cfg, reg, breakerMetrics)
	nc := setupNATS(startupCtx, cfg)
	archiver := setupArchiver(startupCtx, cfg, eventMetrics)
	cancelStartup()

	// Pass nil explicitly to avoid typed-nil interfaces
	var (
		cacheStore goredis.Cmdable
		notifier   *redis.InvalidationNotifier
	)
	if rdb != nil {
		cacheStore = rdb
		notifier = redis.NewInvalidationNotifier(rdb)
	}
	cache := redis.NewAggregateCache(cacheStore, cfg.CacheTTL, cfg.MemoryCacheTTL, clock, metrics.NewCacheMetrics(reg), notifier)
	stopEviction := cache.StartEvictionTimer(cacheEvictionInterval)

	subscriberCtx, stopSubscriber := context.WithCancel(context.Background())
	if rdb != nil {
		go redis.NewInvalidationSubscriber(rdb, cache).Start(subscriberCtx)
	}

	var transport eventpublisher.Transport
	if nc != nil {
		transport = natspub.NewPublisher(nc, breakerMetrics)
	}
	publisher := eventpublisher.New(transport, clock, eventMetrics)

	policy := setupPolicy(cfg, clock)
	repo := postgres.NewAnalysisRepo(pool)
	appSvc := app.NewService(repo, policy, cache, publisher, archiver, metrics.NewIngestMetrics(reg), clock)

	srv := httpserver.NewServer(cfg, appSvc, reg, healthChecks(pool, rdb, nc))

	done := runGracefulShutdown(srv,
		stopSubscriber,
		stopEviction,
		func() {
			if nc != nil {
				if err := nc.Drain(); err != nil {
					slog.Error("Failed to drain NATS connection", "error", err)
				}
			}
		},
		func() {
			if rdb != nil {
				_ = rdb.Close()
			}
		},
	)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
