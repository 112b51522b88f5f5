package app

import (
	"cbrrates/internal/config"
	"cbrrates/internal/domain"
	"cbrrates/internal/rate"
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type acquireFunc func(ctx context.Context, cfg *config.AppConfig) (*pgxpool.Pool, error)

// pipeline holds the components of a long-running process. While it writes to the
// fallback file it retries the relational store at the start of every run and switches
// over once the store is reachable.
type pipeline struct {
	cfg     *config.AppConfig
	deps    *deps
	acquire acquireFunc
	// -----
	mu  sync.RWMutex
	cur *components
}

// RunIncremental resolves the store for this run and loads everything after its watermark.
func (p *pipeline) RunIncremental(ctx context.Context, execID string) (rate.RunReport, error) {
	c := p.resolve(ctx)
	return c.job.RunIncremental(ctx, execID, c.watermark)
}

func (p *pipeline) resolve(ctx context.Context) *components {
	cur := p.current()
	if cur != nil && (cur.pool != nil || !p.cfg.DbServer.Configured()) {
		return cur
	}

	next, err := p.acquireComponents(ctx)
	switch {
	case err != nil && cur != nil:
		logrus.WithError(err).WithField("file", p.cfg.Storage.FallbackFile).Warn("Relational store still unavailable, writing to file")
		return cur
	case err != nil:
		logrus.WithError(err).WithField("file", p.cfg.Storage.FallbackFile).Warn("Relational store unavailable, falling back to file")
		next = fileComponents(p.cfg, p.deps)
	case cur != nil:
		logrus.WithFields(logrus.Fields{"host": p.cfg.DbServer.Host, "db": p.cfg.DbServer.Name}).Info("Relational store available, switching from file")
	}

	p.mu.Lock()
	p.cur = next
	p.mu.Unlock()
	if cur != nil {
		cur.Close()
	}
	return next
}

func (p *pipeline) acquireComponents(ctx context.Context) (*components, error) {
	pool, err := p.acquire(ctx, p.cfg)
	if err != nil {
		return nil, err
	}
	return storeComponents(p.cfg, p.deps, pool)
}

func (p *pipeline) current() *components {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur
}

func (p *pipeline) SinkName() string {
	if c := p.current(); c != nil {
		return c.gateway.SinkName()
	}
	return ""
}

func (p *pipeline) LastLoadedDate(ctx context.Context) time.Time {
	return p.watermark().LastLoadedDate(ctx)
}

func (p *pipeline) Today() time.Time {
	return p.watermark().Today()
}

func (p *pipeline) watermark() *rate.Watermark {
	if c := p.current(); c != nil {
		return c.watermark
	}
	return rate.NewWatermark(nil, p.deps.loc)
}

// Loaded answers domain.ErrStoreUnavailable while the process writes to the fallback file.
func (p *pipeline) Loaded(ctx context.Context, date time.Time) (bool, error) {
	c := p.current()
	if c == nil || c.pool == nil {
		return false, domain.ErrStoreUnavailable
	}
	return c.gateway.Loaded(ctx, date)
}

func (p *pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur != nil {
		p.cur.Close()
		p.cur = nil
	}
}

func newPipeline(cfg *config.AppConfig, d *deps, acquire acquireFunc) *pipeline {
	return &pipeline{cfg: cfg, deps: d, acquire: acquire}
}
