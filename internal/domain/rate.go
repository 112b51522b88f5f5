package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Columns is the canonical field order of a persisted rate row.
var Columns = []string{"date", "currency_code", "currency_name", "nominal", "face_value", "rate"}

type RateRecord struct {
	Date         time.Time
	CurrencyCode string
	CurrencyName string
	Nominal      int
	FaceValue    decimal.Decimal
	Rate         decimal.Decimal
}

// NewRateRecord builds a record and derives Rate as faceValue / nominal.
func NewRateRecord(date time.Time, code, name string, nominal int, faceValue decimal.Decimal) (RateRecord, error) {
	if nominal <= 0 {
		return RateRecord{}, fmt.Errorf("%w: nominal %d for %q", ErrInvalidNominal, nominal, code)
	}
	return RateRecord{
		Date:         Day(date),
		CurrencyCode: code,
		CurrencyName: name,
		Nominal:      nominal,
		FaceValue:    faceValue,
		Rate:         faceValue.Div(decimal.NewFromInt(int64(nominal))),
	}, nil
}

// RateTable is one day's rates as published by the provider.
type RateTable struct {
	Date    time.Time
	Records []RateRecord
}

func (t RateTable) Len() int { return len(t.Records) }

func (t RateTable) Empty() bool { return len(t.Records) == 0 }

// WriteResult reports what a sink committed. Dates lists the dates whose rows were
// fully committed, in write order; a failed call may still carry committed dates.
type WriteResult struct {
	Rows  int
	Dates []time.Time
}

// DistinctDates returns the dates of records in order of first appearance.
func DistinctDates(records []RateRecord) []time.Time {
	seen := make(map[int64]struct{})
	var dates []time.Time
	for _, rec := range records {
		key := rec.Date.Unix()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, rec.Date)
	}
	return dates
}
