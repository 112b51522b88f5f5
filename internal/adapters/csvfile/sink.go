package csvfile

import (
	"cbrrates/internal/domain"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
)

const sinkName = "csv"

// Sink appends rate rows to a local CSV file. The header is written only when the file
// does not exist yet; rows are never deduplicated.
type Sink struct {
	path string
}

func (s *Sink) Name() string { return sinkName }

func (s *Sink) Path() string { return s.path }

// Append writes all records or none of them.
func (s *Sink) Append(ctx context.Context, records []domain.RateRecord) (domain.WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.WriteResult{}, err
	}

	_, statErr := os.Stat(s.path)
	writeHeader := errors.Is(statErr, fs.ErrNotExist)
	if statErr != nil && !writeHeader {
		return domain.WriteResult{}, fmt.Errorf("failed to stat %s: %w", s.path, statErr)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("failed to open %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if writeHeader {
		if err = w.Write(domain.Columns); err != nil {
			_ = f.Close()
			return domain.WriteResult{}, fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, rec := range records {
		if err = w.Write(toRow(rec)); err != nil {
			_ = f.Close()
			return domain.WriteResult{}, fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		_ = f.Close()
		return domain.WriteResult{}, fmt.Errorf("failed to flush %s: %w", s.path, err)
	}
	if err = f.Close(); err != nil {
		return domain.WriteResult{}, fmt.Errorf("failed to close %s: %w", s.path, err)
	}
	return domain.WriteResult{Rows: len(records), Dates: domain.DistinctDates(records)}, nil
}

func toRow(rec domain.RateRecord) []string {
	return []string{
		domain.FormatDay(rec.Date),
		rec.CurrencyCode,
		rec.CurrencyName,
		strconv.Itoa(rec.Nominal),
		rec.FaceValue.String(),
		rec.Rate.String(),
	}
}

func NewSink(path string) *Sink {
	return &Sink{path: path}
}
