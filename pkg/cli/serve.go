package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/cli/config"
	controller "github.com/m-mizutani/reslide/pkg/controller/http"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		canvasCfg  config.Canvas
		rebuildCfg config.Rebuild
		secret     string
	)

	flags := append(serverCfg.Flags(), canvasCfg.Flags()...)
	flags = append(flags, rebuildCfg.Flags()...)
	flags = append(flags, &cli.StringFlag{
		Name:        "shared-secret",
		Usage:       "Require an HMAC-SHA256 signature of the request body in X-Reslide-Signature-256",
		Destination: &secret,
		Sources:     cli.EnvVars("RESLIDE_SHARED_SECRET"),
	})

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting reslide server",
				slog.String("addr", serverCfg.Addr),
				slog.Bool("remote_canvas", canvasCfg.Remote()),
			)

			extractor, err := rebuildCfg.Extractor()
			if err != nil {
				return goerr.Wrap(err, "failed to configure extractor")
			}
			engine, err := canvasCfg.Engine()
			if err != nil {
				return err
			}

			// Create use cases
			rebuildUC := usecase.NewRebuild(
				usecase.WithExtractor(extractor),
				usecase.WithEngine(engine),
			)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				rebuildUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithMaxUploadSize(serverCfg.MaxUploadSize),
				controller.WithSharedSecret(secret),
				controller.WithCanvasFactory(func() (interfaces.Canvas, error) {
					canvas, _, err := canvasCfg.New()
					return canvas, err
				}),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
