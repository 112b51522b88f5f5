package rate

import (
	"cbrrates/internal/adapters"
	"cbrrates/internal/domain"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Watermark resolves the last calendar date already present in the store.
type Watermark struct {
	reader adapters.WatermarkReader
	loc    *time.Location
	now    func() time.Time
}

// Today is the current calendar date in the provider's timezone.
func (w *Watermark) Today() time.Time {
	return domain.Today(w.now(), w.loc)
}

// LastLoadedDate never fails: without a reader, on a query error or on an empty store it
// falls back to yesterday so that an incremental run covers today only.
func (w *Watermark) LastLoadedDate(ctx context.Context) time.Time {
	fallback := w.Today().AddDate(0, 0, -1)
	if w.reader == nil {
		logrus.WithField("fallback", domain.FormatDay(fallback)).Info("No store available, watermark defaults to yesterday")
		return fallback
	}

	last, ok, err := w.reader.MaxDate(ctx)
	if err != nil {
		logrus.WithError(err).WithField("fallback", domain.FormatDay(fallback)).Warn("Failed to read watermark, defaulting to yesterday")
		return fallback
	}
	if !ok {
		logrus.WithField("fallback", domain.FormatDay(fallback)).Info("Store is empty, watermark defaults to yesterday")
		return fallback
	}
	return domain.Day(last)
}

func NewWatermark(reader adapters.WatermarkReader, loc *time.Location) *Watermark {
	if loc == nil {
		loc = time.UTC
	}
	return &Watermark{reader: reader, loc: loc, now: time.Now}
}
