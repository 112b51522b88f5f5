package postgres

import (
	"cbrrates/internal/domain"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	sinkName         = "postgres"
	DefaultChunkSize = 1000
	// MaxChunkSize keeps a multi-row insert of six-column rows under the 65535 bind parameter limit.
	MaxChunkSize = 65535 / 6
)

// RateRepository appends rate rows to public.currency_rates and answers watermark queries.
// Writes are plain appends: no upsert and no uniqueness check.
type RateRepository struct {
	pool      *pgxpool.Pool
	chunkSize int
}

func (r *RateRepository) Name() string { return sinkName }

// Append writes records grouped by date, one transaction per date, using multi-row inserts
// of at most chunkSize rows. The result lists the dates committed before any failure.
func (r *RateRepository) Append(ctx context.Context, records []domain.RateRecord) (domain.WriteResult, error) {
	var res domain.WriteResult
	for _, group := range groupByDate(records) {
		if err := r.appendDay(ctx, group); err != nil {
			return res, err
		}
		res.Rows += len(group)
		res.Dates = append(res.Dates, group[0].Date)
	}
	return res, nil
}

func (r *RateRepository) appendDay(ctx context.Context, records []domain.RateRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for start := 0; start < len(records); start += r.chunkSize {
		end := min(start+r.chunkSize, len(records))
		chunk := records[start:end]

		if _, err = tx.Exec(ctx, insertQuery(len(chunk)), insertArgs(chunk)...); err != nil {
			return fmt.Errorf("failed to insert rates for %s: %w", domain.FormatDay(records[0].Date), err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rates for %s: %w", domain.FormatDay(records[0].Date), err)
	}
	return nil
}

func (r *RateRepository) MaxDate(ctx context.Context) (time.Time, bool, error) {
	const q = `select max(date) from public.currency_rates;`

	var last pgtype.Date
	if err := r.pool.QueryRow(ctx, q).Scan(&last); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to select last loaded date: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return domain.Day(last.Time), true, nil
}

func (r *RateRepository) HasDate(ctx context.Context, date time.Time) (bool, error) {
	const q = `select exists (select 1 from public.currency_rates where date = $1 limit 1);`

	var exists bool
	if err := r.pool.QueryRow(ctx, q, domain.Day(date)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check rates for %s: %w", domain.FormatDay(date), err)
	}
	return exists, nil
}

// groupByDate splits records into per-date groups, keeping first-seen order of dates and rows.
func groupByDate(records []domain.RateRecord) [][]domain.RateRecord {
	index := make(map[int64]int)
	groups := make([][]domain.RateRecord, 0, 1)
	for _, rec := range records {
		i, ok := index[rec.Date.Unix()]
		if !ok {
			i = len(groups)
			index[rec.Date.Unix()] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}

func insertQuery(rows int) string {
	cols := len(domain.Columns)

	var sb strings.Builder
	sb.WriteString("insert into public.currency_rates (")
	sb.WriteString(strings.Join(domain.Columns, ", "))
	sb.WriteString(") values ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+j+1)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// insertArgs flattens records in domain.Columns order. Decimals are sent as text so numeric keeps full precision.
func insertArgs(records []domain.RateRecord) []any {
	args := make([]any, 0, len(records)*len(domain.Columns))
	for _, rec := range records {
		args = append(args,
			rec.Date,
			rec.CurrencyCode,
			rec.CurrencyName,
			rec.Nominal,
			rec.FaceValue.String(),
			rec.Rate.String(),
		)
	}
	return args
}

func NewRateRepository(pool *pgxpool.Pool, chunkSize int) *RateRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkSize = min(chunkSize, MaxChunkSize)
	return &RateRepository{pool: pool, chunkSize: chunkSize}
}
