package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultCron = "0 16 * * *"

// SyncFunc performs one incremental sync under the given execution id.
type SyncFunc func(ctx context.Context, execID string) (RunReport, error)

// Scheduler runs the incremental sync on a cron schedule inside a long-lived process.
type Scheduler struct {
	run  SyncFunc
	cron string
	loc  *time.Location
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(s.loc))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	task := func(jobCtx context.Context) {
		execID := uuid.NewString()
		if _, runErr := s.run(jobCtx, execID); runErr != nil {
			logrus.WithError(runErr).WithField("exec_id", execID).Error("Scheduled sync failed")
		}
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(s.cron, false),
		gocron.NewTask(task),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("incremental-sync"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule sync %q: %w", s.cron, err)
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()
	logrus.WithField("cron", s.cron).Info("Scheduler started")

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func NewScheduler(run SyncFunc, cron string, loc *time.Location) *Scheduler {
	if cron == "" {
		cron = DefaultCron
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{run: run, cron: cron, loc: loc}
}
