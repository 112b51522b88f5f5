package rate

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRateSource struct{ mock.Mock }

func (m *MockRateSource) Fetch(ctx context.Context, date time.Time) (domain.RateTable, error) {
	args := m.Called(ctx, date)
	table, _ := args.Get(0).(domain.RateTable)
	return table, args.Error(1)
}

type MockSink struct {
	mock.Mock
	name string
}

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Append(ctx context.Context, records []domain.RateRecord) (domain.WriteResult, error) {
	args := m.Called(ctx, records)
	res, _ := args.Get(0).(domain.WriteResult)
	return res, args.Error(1)
}

type MockWatermarkReader struct{ mock.Mock }

func (m *MockWatermarkReader) MaxDate(ctx context.Context) (time.Time, bool, error) {
	args := m.Called(ctx)
	date, _ := args.Get(0).(time.Time)
	return date, args.Bool(1), args.Error(2)
}

type MockDateChecker struct{ mock.Mock }

func (m *MockDateChecker) HasDate(ctx context.Context, date time.Time) (bool, error) {
	args := m.Called(ctx, date)
	return args.Bool(0), args.Error(1)
}

type mapDateCache map[string]struct{}

func (c mapDateCache) Known(date time.Time) bool {
	_, ok := c[domain.FormatDay(date)]
	return ok
}

func (c mapDateCache) Remember(date time.Time) { c[domain.FormatDay(date)] = struct{}{} }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(t *testing.T, date time.Time, code string, nominal int, value string) domain.RateRecord {
	t.Helper()
	rec, err := domain.NewRateRecord(date, code, code+" name", nominal, decimal.RequireFromString(value))
	require.NoError(t, err)
	return rec
}

func table(t *testing.T, date time.Time, codes ...string) domain.RateTable {
	t.Helper()
	records := make([]domain.RateRecord, 0, len(codes))
	for _, code := range codes {
		records = append(records, record(t, date, code, 1, "10.5"))
	}
	return domain.RateTable{Date: date, Records: records}
}

// committed is the result of a sink that wrote every record.
func committed(records ...domain.RateRecord) domain.WriteResult {
	return domain.WriteResult{Rows: len(records), Dates: domain.DistinctDates(records)}
}

// fixedClock returns a watermark whose "now" is noon of the given day in loc.
func fixedClock(reader *MockWatermarkReader, today time.Time, loc *time.Location) *Watermark {
	var r adapters.WatermarkReader
	if reader != nil {
		r = reader
	}
	wm := NewWatermark(r, loc)
	wm.now = func() time.Time {
		return time.Date(today.Year(), today.Month(), today.Day(), 12, 0, 0, 0, loc)
	}
	return wm
}
