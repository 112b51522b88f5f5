package rate

import (
	"cbrrates/internal/domain"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("range start is after range end")

// Plan is an ascending, gap-free list of calendar dates to fetch.
type Plan struct {
	dates []time.Time
}

func (p Plan) Dates() []time.Time {
	out := make([]time.Time, len(p.dates))
	copy(out, p.dates)
	return out
}

func (p Plan) Len() int { return len(p.dates) }

func (p Plan) Empty() bool { return len(p.dates) == 0 }

// PlanIncremental covers the days after the watermark up to and including today.
// A watermark at or after today yields an empty plan.
func PlanIncremental(watermark, today time.Time) Plan {
	return daysBetween(domain.Day(watermark).AddDate(0, 0, 1), domain.Day(today))
}

// PlanBackfill covers every day of the inclusive range.
func PlanBackfill(from, to time.Time) (Plan, error) {
	from, to = domain.Day(from), domain.Day(to)
	if from.After(to) {
		return Plan{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, domain.FormatDay(from), domain.FormatDay(to))
	}
	return daysBetween(from, to), nil
}

func daysBetween(start, end time.Time) Plan {
	if start.After(end) {
		return Plan{}
	}
	dates := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return Plan{dates: dates}
}
