package rate

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/domain"
	"cbrrates/internal/metrics"
	"context"
	"fmt"
	"time"
)

// Gateway forwards batches to the sink selected for the run.
type Gateway struct {
	sink    adapters.Sink
	checker adapters.DateChecker
	cache   adapters.DateCache
	metrics *metrics.IngestMetrics
}

func (g *Gateway) SinkName() string { return g.sink.Name() }

// Persist appends records and reports what the sink committed. Failures are returned
// as *domain.PersistError alongside any dates committed before the failure.
func (g *Gateway) Persist(ctx context.Context, records []domain.RateRecord) (domain.WriteResult, error) {
	if len(records) == 0 {
		return domain.WriteResult{}, nil
	}

	name := g.sink.Name()
	res, err := g.sink.Append(ctx, records)
	g.metrics.ObservePersist(name, res.Rows, err)
	if g.cache != nil {
		for _, date := range res.Dates {
			g.cache.Remember(date)
		}
	}
	if err != nil {
		return res, &domain.PersistError{Sink: name, Rows: len(records) - res.Rows, Err: err}
	}
	return res, nil
}

// Loaded reports whether the store already holds rows for date. Without a date checker
// every date counts as not loaded.
func (g *Gateway) Loaded(ctx context.Context, date time.Time) (bool, error) {
	if g.checker == nil {
		return false, nil
	}
	if g.cache != nil && g.cache.Known(date) {
		return true, nil
	}

	ok, err := g.checker.HasDate(ctx, date)
	if err != nil {
		return false, fmt.Errorf("failed to check date %s: %w", domain.FormatDay(date), err)
	}
	if ok && g.cache != nil {
		g.cache.Remember(date)
	}
	return ok, nil
}

// WithDateChecker enables existence checks, optionally memoized in cache.
func (g *Gateway) WithDateChecker(checker adapters.DateChecker, cache adapters.DateCache) *Gateway {
	g.checker = checker
	g.cache = cache
	return g
}

func NewGateway(sink adapters.Sink, m *metrics.IngestMetrics) *Gateway {
	return &Gateway{sink: sink, metrics: m}
}
