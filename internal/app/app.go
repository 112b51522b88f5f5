package app

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/adapters/cache"
	"cbrrates/internal/adapters/cbr"
	"cbrrates/internal/adapters/csvfile"
	"cbrrates/internal/adapters/postgres"
	"cbrrates/internal/api"
	"cbrrates/internal/config"
	"cbrrates/internal/metrics"
	"cbrrates/internal/platform/db"
	httpserver "cbrrates/internal/platform/http"
	"cbrrates/internal/rate"
	"cbrrates/internal/rate/handler"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const startupTimeout = 30 * time.Second

var (
	ErrStoreRequired      = errors.New("relational store is required")
	errStoreNotConfigured = errors.New("db_server host and name are not configured")
)

// BackfillParams overrides the configured historical range.
type BackfillParams struct {
	From         time.Time
	To           time.Time
	Delay        time.Duration
	SkipExisting bool
}

// Run executes fn under a context bound to SIGINT/SIGTERM. A panic inside fn is logged
// as fatal and returned as an error.
func Run(fn func(ctx context.Context) error) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"fatal": true, "panic": r}).Error(string(debug.Stack()))
			err = fmt.Errorf("fatal error: %v", r)
		}
	}()
	return fn(ctx)
}

// Sync loads every day after the watermark up to today. Without a live store the rows go
// to the fallback file and the watermark defaults to yesterday.
func Sync(ctx context.Context, cfg *config.AppConfig) (rate.RunReport, error) {
	d, err := newDeps(cfg)
	if err != nil {
		return rate.RunReport{}, err
	}
	c, err := newComponents(ctx, cfg, d, false)
	if err != nil {
		return rate.RunReport{}, err
	}
	defer c.Close()

	return c.job.RunIncremental(ctx, uuid.NewString(), c.watermark)
}

// Backfill loads the historical range date by date. It refuses to run without a live store.
func Backfill(ctx context.Context, cfg *config.AppConfig, params BackfillParams) (rate.RunReport, error) {
	d, err := newDeps(cfg)
	if err != nil {
		return rate.RunReport{}, err
	}
	c, err := newComponents(ctx, cfg, d, true)
	if err != nil {
		return rate.RunReport{}, err
	}
	defer c.Close()

	opts := rate.Options{Strategy: rate.BatchPerDate, Delay: params.Delay, SkipExisting: params.SkipExisting}
	return c.job.RunBackfill(ctx, uuid.NewString(), params.From, params.To, opts)
}

// Serve runs the incremental sync on the configured cron schedule and exposes the ops
// HTTP endpoints until ctx is canceled. The store is resolved again before every scheduled
// run for as long as the process writes to the fallback file.
func Serve(ctx context.Context, cfg *config.AppConfig) error {
	d, err := newDeps(cfg)
	if err != nil {
		return err
	}
	p := newPipeline(cfg, d, acquireStore)
	p.resolve(ctx)
	defer p.Close()

	scheduler := rate.NewScheduler(p.RunIncremental, cfg.Scheduler.Cron, d.loc)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}

	statusHandler := handler.NewStatusHandler(p, p, p)
	router := api.NewRouter(statusHandler, promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	if serverErr := httpserver.Start(ctx, cfg.HTTPServer, router); serverErr != nil {
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

// deps outlive any single store decision.
type deps struct {
	loc      *time.Location
	registry *prometheus.Registry
	metrics  *metrics.IngestMetrics
	source   adapters.RateSource
}

func newDeps(cfg *config.AppConfig) (*deps, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Provider.Timezone, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &deps{
		loc:      loc,
		registry: registry,
		metrics:  metrics.NewIngestMetrics(registry),
		source:   cbr.NewClient(newHTTPClient(cfg), cfg.Provider.BaseURL),
	}, nil
}

type components struct {
	pool      *pgxpool.Pool
	dateCache *cache.RistrettoDateCache
	gateway   *rate.Gateway
	watermark *rate.Watermark
	job       *rate.IngestJob
}

func (c *components) Close() {
	if c.dateCache != nil {
		c.dateCache.Close()
	}
	if c.pool != nil {
		c.pool.Close()
		logrus.Info("Postgres pool closed")
	}
}

// newComponents resolves the store and wires the pipeline around it. When the store
// cannot be acquired the file sink takes over, unless requireStore is set.
func newComponents(ctx context.Context, cfg *config.AppConfig, d *deps, requireStore bool) (*components, error) {
	pool, err := acquireStore(ctx, cfg)
	switch {
	case err == nil:
		return storeComponents(cfg, d, pool)
	case requireStore:
		logrus.WithError(err).Error("Relational store unavailable")
		return nil, fmt.Errorf("%w: %w", ErrStoreRequired, err)
	default:
		logrus.WithError(err).WithField("file", cfg.Storage.FallbackFile).Warn("Relational store unavailable, falling back to file")
		return fileComponents(cfg, d), nil
	}
}

// storeComponents takes ownership of pool.
func storeComponents(cfg *config.AppConfig, d *deps, pool *pgxpool.Pool) (*components, error) {
	dateCache, err := cache.NewDateCache(cfg.Cache.MaxItems)
	if err != nil {
		pool.Close()
		return nil, err
	}
	repo := postgres.NewRateRepository(pool, cfg.Storage.ChunkSize)
	gateway := rate.NewGateway(repo, d.metrics).WithDateChecker(repo, dateCache)
	return &components{
		pool:      pool,
		dateCache: dateCache,
		gateway:   gateway,
		watermark: rate.NewWatermark(repo, d.loc),
		job:       rate.NewIngestJob(d.source, gateway, d.metrics),
	}, nil
}

func fileComponents(cfg *config.AppConfig, d *deps) *components {
	gateway := rate.NewGateway(csvfile.NewSink(cfg.Storage.FallbackFile), d.metrics)
	return &components{
		gateway:   gateway,
		watermark: rate.NewWatermark(nil, d.loc),
		job:       rate.NewIngestJob(d.source, gateway, d.metrics),
	}
}

// acquireStore connects, validates and migrates the relational store.
func acquireStore(ctx context.Context, cfg *config.AppConfig) (*pgxpool.Pool, error) {
	if !cfg.DbServer.Configured() {
		return nil, errStoreNotConfigured
	}

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := db.CreatePoolAndPing(startupCtx, cfg.DbServer)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	logrus.WithFields(logrus.Fields{"host": cfg.DbServer.Host, "db": cfg.DbServer.Name}).Info("Postgres connection successful")

	if err = db.Migrate(startupCtx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return pool, nil
}

func newHTTPClient(cfg *config.AppConfig) *http.Client {
	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	if cfg.HTTPClient.InsecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		client.Transport = transport
	}
	return client
}
