package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewRateRecord_DerivesRateFromNominal(t *testing.T) {
	date := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)

	rec, err := NewRateRecord(date, "JPY", "Японских иен", 100, decimal.RequireFromString("60.8123"))

	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rec.Date)
	require.Equal(t, 100, rec.Nominal)
	require.True(t, rec.Rate.Equal(decimal.RequireFromString("0.608123")), rec.Rate.String())
}

func TestNewRateRecord_RejectsNonPositiveNominal(t *testing.T) {
	for _, nominal := range []int{0, -1} {
		_, err := NewRateRecord(time.Now(), "USD", "Доллар США", nominal, decimal.NewFromInt(90))
		require.ErrorIs(t, err, ErrInvalidNominal)
	}
}

func TestDay_KeepsLocalCalendarDate(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	// 01:30 in Moscow is still the previous day in UTC.
	local := time.Date(2024, 1, 5, 1, 30, 0, 0, msk)

	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Day(local))
	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Today(local.UTC(), msk))
	require.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Today(local.UTC(), time.UTC))
}

func TestFetchError_UnwrapsCause(t *testing.T) {
	err := &FetchError{Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), Kind: FetchNoData, Err: ErrNoData}

	require.ErrorIs(t, err, ErrNoData)
	require.EqualError(t, err, "fetch rates for 2024-01-06 (no_data): no rates published for date")

	var fe *FetchError
	require.True(t, errors.As(error(err), &fe))
	require.Equal(t, FetchNoData, fe.Kind)
}
