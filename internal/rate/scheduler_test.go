package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(cron string) *Scheduler {
	job := NewIngestJob(new(MockRateSource), NewGateway(&MockSink{name: "csv"}, nil), nil)
	return NewScheduler(job.Incremental(NewWatermark(nil, time.UTC)), cron, time.UTC)
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

func TestNewScheduler_DefaultsCron(t *testing.T) {
	s := newTestScheduler("")
	require.Equal(t, DefaultCron, s.cron)
	require.False(t, s.running())
}

func TestScheduler_Shutdown_NoScheduler_ReturnsNil(t *testing.T) {
	s := newTestScheduler("")
	require.NoError(t, s.Shutdown())
	require.False(t, s.running())
}

func TestScheduler_Start_InvalidCron(t *testing.T) {
	s := newTestScheduler("not a cron")
	require.Error(t, s.Start(context.Background()))
	require.False(t, s.running())
}

func TestScheduler_Start_And_ContextCancel_ShutsDown(t *testing.T) {
	s := newTestScheduler("0 16 * * *")
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	require.True(t, s.running())

	cancel()

	require.Eventually(t, func() bool { return !s.running() }, 2*time.Second, 10*time.Millisecond,
		"expected scheduler to be shutdown after ctx cancel")
}

func TestScheduler_Shutdown_AfterStart_Idempotent(t *testing.T) {
	s := newTestScheduler("0 16 * * *")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Shutdown())
	require.False(t, s.running())
	require.NoError(t, s.Shutdown())
}

func TestIngestJob_Incremental_BindsWatermark(t *testing.T) {
	reader := new(MockWatermarkReader)
	reader.On("MaxDate", mock.Anything).Return(day(2024, 1, 5), true, nil).Once()
	source := new(MockRateSource)
	job := NewIngestJob(source, NewGateway(&MockSink{name: "postgres"}, nil), nil)

	report, err := job.Incremental(fixedClock(reader, day(2024, 1, 5), time.UTC))(context.Background(), "exec-7")

	require.NoError(t, err)
	require.Equal(t, RunReport{ExecID: "exec-7", Mode: ModeIncremental}, report)
	reader.AssertExpectations(t)
	source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}
