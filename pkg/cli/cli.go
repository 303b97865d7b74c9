package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/reslide/pkg/cli/config"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
	)

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "reslide",
		Usage:   "Rebuild a presentation slide on a drawing canvas",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			if err := sentryCfg.Configure(); err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdRebuild(),
			cmdInspect(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentryCfg.Report(err)
		return err
	}

	return nil
}
