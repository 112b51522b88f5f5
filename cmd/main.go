package main

import (
	"cbrrates/internal/app"
	"cbrrates/internal/config"
	"cbrrates/internal/domain"
	"cbrrates/internal/platform/logging"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
	"github.com/urfave/cli/v2"
)

const (
	flagConfig       = "config"
	flagFrom         = "from"
	flagTo           = "to"
	flagDelay        = "delay"
	flagSkipExisting = "skip-existing"
)

func main() {
	cliApp := &cli.App{
		Name:  "cbrrates",
		Usage: "load Central Bank of Russia daily reference rates into Postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file; defaults and env vars apply without one",
				EnvVars: []string{"CBRRATES_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "load every day after the last loaded date up to today",
				Action: func(cCtx *cli.Context) error {
					return runWithConfig(cCtx, func(ctx context.Context, cfg *config.AppConfig) error {
						_, err := app.Sync(ctx, cfg)
						return err
					})
				},
			},
			{
				Name:  "backfill",
				Usage: "load a fixed historical range, one date at a time",
				Flags: backfillFlags(),
				Action: func(cCtx *cli.Context) error {
					return runWithConfig(cCtx, func(ctx context.Context, cfg *config.AppConfig) error {
						params, err := backfillParams(cCtx, cfg)
						if err != nil {
							return err
						}
						_, err = app.Backfill(ctx, cfg, params)
						return err
					})
				},
			},
			{
				Name:  "serve",
				Usage: "run the daily sync on a schedule and expose ops endpoints",
				Action: func(cCtx *cli.Context) error {
					return runWithConfig(cCtx, app.Serve)
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logrus.WithError(err).Error("cbrrates failed")
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func runWithConfig(cCtx *cli.Context, fn func(ctx context.Context, cfg *config.AppConfig) error) error {
	cfg, err := config.Init(cCtx.String(flagConfig))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		logrus.WithError(err).Warn("Logging to stdout only")
	}
	atexit.Register(func() { _ = closeLog() })
	logrus.WithField("command", cCtx.Command.Name).Info("Config initialization successful")

	return app.Run(func(ctx context.Context) error {
		return fn(ctx, cfg)
	})
}

func backfillFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagFrom, Usage: "first date, YYYY-MM-DD (default from config)"},
		&cli.StringFlag{Name: flagTo, Usage: "last date, YYYY-MM-DD (default from config)"},
		&cli.DurationFlag{Name: flagDelay, Usage: "pause between requests (default from config)"},
		&cli.BoolFlag{Name: flagSkipExisting, Usage: "skip dates already present in the store"},
	}
}

func backfillParams(cCtx *cli.Context, cfg *config.AppConfig) (app.BackfillParams, error) {
	fromRaw, toRaw := cfg.Backfill.From, cfg.Backfill.To
	if cCtx.IsSet(flagFrom) {
		fromRaw = cCtx.String(flagFrom)
	}
	if cCtx.IsSet(flagTo) {
		toRaw = cCtx.String(flagTo)
	}

	from, err := domain.ParseDay(fromRaw)
	if err != nil {
		return app.BackfillParams{}, fmt.Errorf("invalid --%s %q: %w", flagFrom, fromRaw, err)
	}
	to, err := domain.ParseDay(toRaw)
	if err != nil {
		return app.BackfillParams{}, fmt.Errorf("invalid --%s %q: %w", flagTo, toRaw, err)
	}

	params := app.BackfillParams{
		From:         from,
		To:           to,
		Delay:        cfg.BackfillDelay(),
		SkipExisting: cfg.Backfill.SkipExisting || cCtx.Bool(flagSkipExisting),
	}
	if cCtx.IsSet(flagDelay) {
		params.Delay = cCtx.Duration(flagDelay)
	}
	if params.Delay < 0 {
		return app.BackfillParams{}, errors.New("delay must not be negative")
	}
	return params, nil
}
