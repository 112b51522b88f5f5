package rate

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/domain"
	"cbrrates/internal/metrics"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ModeIncremental = "incremental"
	ModeBackfill    = "backfill"
)

// BatchStrategy decides when fetched tables are handed to the gateway.
type BatchStrategy int

const (
	// BatchPerRun accumulates every fetched day and persists once at the end of the run.
	BatchPerRun BatchStrategy = iota
	// BatchPerDate persists each day right after it was fetched.
	BatchPerDate
)

func (s BatchStrategy) String() string {
	switch s {
	case BatchPerRun:
		return "per_run"
	case BatchPerDate:
		return "per_date"
	default:
		return fmt.Sprintf("BatchStrategy(%d)", int(s))
	}
}

type Options struct {
	Strategy BatchStrategy
	// Delay is the pause between two consecutive fetches.
	Delay        time.Duration
	SkipExisting bool
}

// RunReport summarizes one pipeline run. Failed counts dates lost to fetch or persist errors.
type RunReport struct {
	ExecID    string
	Mode      string
	Planned   int
	Fetched   int
	Skipped   int
	Persisted int
	Failed    int
}

func (r RunReport) fields() logrus.Fields {
	return logrus.Fields{
		"exec_id":   r.ExecID,
		"mode":      r.Mode,
		"planned":   r.Planned,
		"fetched":   r.Fetched,
		"skipped":   r.Skipped,
		"persisted": r.Persisted,
		"failed":    r.Failed,
	}
}

// IngestJob walks a plan date by date, fetching each table and handing it to the gateway.
// Dates are processed sequentially in ascending order; a failed date never aborts the run.
type IngestJob struct {
	source  adapters.RateSource
	gateway *Gateway
	metrics *metrics.IngestMetrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// RunIncremental loads every day after the watermark up to today and persists them in one batch.
func (j *IngestJob) RunIncremental(ctx context.Context, execID string, wm *Watermark) (RunReport, error) {
	last := wm.LastLoadedDate(ctx)
	j.metrics.SetWatermark(last)
	logrus.WithFields(logrus.Fields{"exec_id": execID, "watermark": domain.FormatDay(last)}).Info("Watermark resolved")

	plan := PlanIncremental(last, wm.Today())
	return j.Run(ctx, execID, ModeIncremental, plan, Options{Strategy: BatchPerRun})
}

// Incremental binds RunIncremental to wm for the scheduler.
func (j *IngestJob) Incremental(wm *Watermark) SyncFunc {
	return func(ctx context.Context, execID string) (RunReport, error) {
		return j.RunIncremental(ctx, execID, wm)
	}
}

// RunBackfill loads the inclusive historical range without consulting the watermark.
func (j *IngestJob) RunBackfill(ctx context.Context, execID string, from, to time.Time, opts Options) (RunReport, error) {
	plan, err := PlanBackfill(from, to)
	if err != nil {
		return RunReport{ExecID: execID, Mode: ModeBackfill}, err
	}
	return j.Run(ctx, execID, ModeBackfill, plan, opts)
}

// Run executes a plan. The only error it returns is the context's, when the run was
// interrupted between dates; per-date problems are logged and counted in the report.
func (j *IngestJob) Run(ctx context.Context, execID, mode string, plan Plan, opts Options) (RunReport, error) {
	report := RunReport{ExecID: execID, Mode: mode, Planned: plan.Len()}
	log := logrus.WithFields(logrus.Fields{"exec_id": execID, "mode": mode})

	if plan.Empty() {
		log.Info("No new data to load")
		j.metrics.ObserveRun(mode, "empty")
		return report, nil
	}

	dates := plan.Dates()
	log.WithFields(logrus.Fields{
		"from":     domain.FormatDay(dates[0]),
		"to":       domain.FormatDay(dates[len(dates)-1]),
		"days":     len(dates),
		"strategy": opts.Strategy.String(),
	}).Info("Starting load")

	var (
		batch      []domain.RateRecord
		batchDates int
		requested  bool
	)
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return j.interrupted(report, date, err)
		}

		dlog := log.WithField("date", domain.FormatDay(date))
		if opts.SkipExisting {
			loaded, err := j.gateway.Loaded(ctx, date)
			if err != nil {
				dlog.WithError(err).Warn("Existence check failed, fetching anyway")
			} else if loaded {
				report.Skipped++
				dlog.Info("Date already loaded, skipping")
				continue
			}
		}

		// only provider requests are spaced by the delay
		if requested && opts.Delay > 0 {
			if err := j.sleep(ctx, opts.Delay); err != nil {
				return j.interrupted(report, date, err)
			}
		}
		requested = true

		table, err := j.fetch(ctx, date)
		if err != nil {
			report.Failed++
			dlog.WithError(err).Warn("Skipping date")
			continue
		}
		if table.Empty() {
			report.Failed++
			dlog.Warn("Source returned an empty table, skipping date")
			continue
		}
		report.Fetched++
		dlog.WithField("rows", table.Len()).Info("Rates fetched")

		if opts.Strategy == BatchPerDate {
			j.persist(ctx, dlog, &report, table.Records, 1)
			continue
		}
		batch = append(batch, table.Records...)
		batchDates++
	}

	if opts.Strategy == BatchPerRun {
		if len(batch) == 0 {
			log.Info("Nothing fetched, skipping persistence")
		} else {
			j.persist(ctx, log, &report, batch, batchDates)
		}
	}

	result := "ok"
	if report.Failed > 0 {
		result = "partial"
	}
	j.metrics.ObserveRun(mode, result)
	log.WithFields(report.fields()).Info("Load finished")
	return report, nil
}

func (j *IngestJob) fetch(ctx context.Context, date time.Time) (domain.RateTable, error) {
	start := time.Now()
	table, err := j.source.Fetch(ctx, date)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			outcome = string(fetchErr.Kind)
		}
	}
	j.metrics.ObserveFetch(outcome, time.Since(start))
	return table, err
}

// persist hands a batch covering dates distinct dates to the gateway. Dates the sink
// committed before a failure count as persisted; only the rest count as failed.
func (j *IngestJob) persist(ctx context.Context, log *logrus.Entry, report *RunReport, records []domain.RateRecord, dates int) {
	res, err := j.gateway.Persist(ctx, records)
	report.Persisted += res.Rows
	log = log.WithField("sink", j.gateway.SinkName())

	if len(res.Dates) > 0 {
		log.WithFields(logrus.Fields{"rows": res.Rows, "dates": formatDays(res.Dates)}).Info("Rates persisted")
	}
	if err != nil {
		failed := max(dates-len(res.Dates), 0)
		report.Failed += failed
		log.WithError(err).WithField("failed_dates", failed).Error("Failed to persist rates")
	}
}

func formatDays(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.FormatDay(d))
	}
	return out
}

func (j *IngestJob) interrupted(report RunReport, next time.Time, err error) (RunReport, error) {
	j.metrics.ObserveRun(report.Mode, "canceled")
	logrus.WithFields(report.fields()).WithField("next_date", domain.FormatDay(next)).Warn("Load interrupted")
	return report, fmt.Errorf("load interrupted before %s: %w", domain.FormatDay(next), err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func NewIngestJob(source adapters.RateSource, gateway *Gateway, m *metrics.IngestMetrics) *IngestJob {
	return &IngestJob{source: source, gateway: gateway, metrics: m, sleep: sleepContext}
}
