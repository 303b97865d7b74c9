package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/cli/config"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdRebuild() *cli.Command {
	var (
		sourceCfg  config.Source
		canvasCfg  config.Canvas
		rebuildCfg config.Rebuild
		slide      int
		output     string
	)

	flags := append(sourceCfg.Flags(), canvasCfg.Flags()...)
	flags = append(flags, rebuildCfg.Flags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:        "slide",
			Usage:       "Slide number to rebuild. 0 selects the first slide",
			Destination: &slide,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the rebuilt scene (or the batch result for a remote canvas) to a file instead of stdout",
			Destination: &output,
		},
	)

	return &cli.Command{
		Name:      "rebuild",
		Aliases:   []string{"r"},
		Usage:     "Rebuild one slide of a package",
		ArgsUsage: "<file.pptx | gs://bucket/object.pptx>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			ref := c.Args().First()
			if ref == "" {
				return goerr.New("package reference is required", goerr.T(types.ErrTagInvalidInput))
			}

			extractor, err := rebuildCfg.Extractor()
			if err != nil {
				return goerr.Wrap(err, "failed to configure extractor")
			}
			engine, err := canvasCfg.Engine()
			if err != nil {
				return err
			}
			canvas, scene, err := canvasCfg.New()
			if err != nil {
				return err
			}

			src := sourceCfg.New()
			defer func() {
				if err := src.Close(); err != nil {
					logger.Warn("Failed to close package source", slog.Any("error", err))
				}
			}()

			name, data, err := src.Load(ctx, ref)
			if err != nil {
				return goerr.Wrap(err, "failed to load package", goerr.V("ref", ref))
			}

			rebuildUC := usecase.NewRebuild(
				usecase.WithExtractor(extractor),
				usecase.WithEngine(engine),
			)
			result, err := rebuildUC.Rebuild(ctx, &model.RebuildInput{
				Name:       name,
				Data:       data,
				SlideIndex: slide,
			}, canvas)
			if err != nil {
				return err
			}
			if result.Rejected {
				return goerr.New(result.Reason, goerr.V("name", name), goerr.T(types.ErrTagInvalidInput))
			}

			logger.Info("Slide rebuilt",
				slog.String("slide", result.SlideName),
				slog.Int("descriptors", result.Descriptors),
				slog.Int("created", len(result.Reconstruct.Created)),
				slog.Int("image_failures", len(result.Reconstruct.ImageFailures)),
				slog.Any("warnings", result.Warnings),
			)

			w, closeOutput, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeOutput()

			if scene != nil {
				return scene.WriteJSON(w)
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return goerr.Wrap(err, "failed to write result")
			}
			return nil
		},
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create output file", goerr.V("path", path))
	}
	return f, func() { _ = f.Close() }, nil
}
