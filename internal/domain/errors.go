package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoData         = errors.New("no rates published for date")
	ErrInvalidNominal = errors.New("nominal must be positive")
	// ErrStoreUnavailable is returned by store-only queries while rows go to the fallback file.
	ErrStoreUnavailable = errors.New("relational store is not available")
)

type FetchErrorKind string

const (
	FetchNetwork   FetchErrorKind = "network"
	FetchStatus    FetchErrorKind = "status"
	FetchDecode    FetchErrorKind = "decode"
	FetchTransform FetchErrorKind = "transform"
	FetchNoData    FetchErrorKind = "no_data"
)

// FetchError reports why a day's table could not be produced. The day is skipped as a whole.
type FetchError struct {
	Date time.Time
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch rates for %s (%s): %v", FormatDay(e.Date), e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError reports a failed write of a batch to a sink.
type PersistError struct {
	Sink string
	Rows int
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %d rows to %s: %v", e.Rows, e.Sink, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
