package adapters

import (
	"cbrrates/internal/domain"
	"context"
	"time"
)

type RateSource interface {
	Fetch(ctx context.Context, date time.Time) (domain.RateTable, error)
}

// Sink is a persistence target for canonical rate rows. Append reports the dates it
// committed even when it fails part way through.
type Sink interface {
	Name() string
	Append(ctx context.Context, records []domain.RateRecord) (domain.WriteResult, error)
}

type WatermarkReader interface {
	// MaxDate returns the latest persisted date; ok is false when the store holds no rows.
	MaxDate(ctx context.Context) (date time.Time, ok bool, err error)
}

type DateChecker interface {
	HasDate(ctx context.Context, date time.Time) (bool, error)
}

type DateCache interface {
	Known(date time.Time) bool
	Remember(date time.Time)
}
