package db

import (
	"cbrrates/internal/config"
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// CreatePoolAndPing opens a pool and validates it with a round trip. Ping failures are
// retried cfg.ConnectRetries times with a constant delay.
func CreatePoolAndPing(ctx context.Context, cfg config.DbServer) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetConnectionStr())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	var policy backoff.BackOff = backoff.NewConstantBackOff(retryDelay)
	policy = backoff.WithMaxRetries(policy, uint64(max(cfg.ConnectRetries, 0)))
	policy = backoff.WithContext(policy, ctx)

	attempt := 0
	ping := func() error {
		attempt++
		pingErr := pool.Ping(ctx)
		if pingErr != nil {
			logrus.WithError(pingErr).WithField("attempt", attempt).Warn("Postgres ping failed")
		}
		return pingErr
	}
	if err = backoff.Retry(ping, policy); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
