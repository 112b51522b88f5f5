package main

import (
	"cbrrates/internal/app"
	"cbrrates/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func parseBackfill(t *testing.T, cfg *config.AppConfig, args ...string) (app.BackfillParams, error) {
	t.Helper()
	var (
		params   app.BackfillParams
		parseErr error
	)
	cliApp := &cli.App{
		Commands: []*cli.Command{{
			Name:  "backfill",
			Flags: backfillFlags(),
			Action: func(cCtx *cli.Context) error {
				params, parseErr = backfillParams(cCtx, cfg)
				return nil
			},
		}},
	}
	require.NoError(t, cliApp.Run(append([]string{"cbrrates", "backfill"}, args...)))
	return params, parseErr
}

func defaultBackfillConfig() *config.AppConfig {
	return &config.AppConfig{Backfill: config.Backfill{From: "2000-01-02", To: "2015-06-24", DelayMillis: 500}}
}

func TestBackfillParams_Defaults(t *testing.T) {
	params, err := parseBackfill(t, defaultBackfillConfig())

	require.NoError(t, err)
	require.Equal(t, time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), params.From)
	require.Equal(t, time.Date(2015, 6, 24, 0, 0, 0, 0, time.UTC), params.To)
	require.Equal(t, 500*time.Millisecond, params.Delay)
	require.False(t, params.SkipExisting)
}

func TestBackfillParams_FlagsOverrideConfig(t *testing.T) {
	params, err := parseBackfill(t, defaultBackfillConfig(),
		"--from", "2010-01-01", "--to", "2010-01-31", "--delay", "1s", "--skip-existing")

	require.NoError(t, err)
	require.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), params.From)
	require.Equal(t, time.Date(2010, 1, 31, 0, 0, 0, 0, time.UTC), params.To)
	require.Equal(t, time.Second, params.Delay)
	require.True(t, params.SkipExisting)
}

func TestBackfillParams_InvalidDate(t *testing.T) {
	_, err := parseBackfill(t, defaultBackfillConfig(), "--from", "02/01/2000")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid --from")
}

func TestBackfillParams_NegativeDelay(t *testing.T) {
	_, err := parseBackfill(t, defaultBackfillConfig(), "--delay=-1s")
	require.Error(t, err)
}
