package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/cli/config"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/archive"
	"github.com/m-mizutani/reslide/pkg/usecase"
	"github.com/urfave/cli/v3"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	warningColor = color.New(color.FgYellow)
	missingColor = color.New(color.Faint)
)

func cmdInspect() *cli.Command {
	var (
		sourceCfg  config.Source
		rebuildCfg config.Rebuild
		slide      int
		entries    bool
	)

	flags := append(sourceCfg.Flags(), rebuildCfg.Flags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:        "slide",
			Usage:       "Slide number to inspect. 0 selects the first slide",
			Destination: &slide,
		},
		&cli.BoolFlag{
			Name:        "entries",
			Usage:       "List every package entry",
			Destination: &entries,
		},
	)

	return &cli.Command{
		Name:      "inspect",
		Aliases:   []string{"i"},
		Usage:     "Show the located parts and shape descriptors of a slide without drawing it",
		ArgsUsage: "<file.pptx | gs://bucket/object.pptx>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ref := c.Args().First()
			if ref == "" {
				return goerr.New("package reference is required", goerr.T(types.ErrTagInvalidInput))
			}

			extractor, err := rebuildCfg.Extractor()
			if err != nil {
				return goerr.Wrap(err, "failed to configure extractor")
			}

			src := sourceCfg.New()
			defer func() {
				if err := src.Close(); err != nil {
					ctxlog.From(ctx).Warn("Failed to close package source", slog.Any("error", err))
				}
			}()

			name, data, err := src.Load(ctx, ref)
			if err != nil {
				return goerr.Wrap(err, "failed to load package", goerr.V("ref", ref))
			}
			if reason := usecase.CheckPackageName(name); reason != "" {
				return goerr.New(reason, goerr.V("name", name), goerr.T(types.ErrTagInvalidInput))
			}

			pkg, err := archive.Open(data)
			if err != nil {
				return goerr.Wrap(err, "failed to open package", goerr.V("name", name))
			}

			bundle, err := usecase.Locate(ctx, pkg, slide)
			if err != nil {
				return err
			}

			descriptors, err := extractor.ExtractDescriptors(ctx, bundle)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if entries {
				printEntries(w, pkg.EntryNames(), usecase.SlideEntries(pkg))
			}
			printBundle(w, bundle)
			printDescriptors(w, descriptors)
			return nil
		},
	}
}

func printEntries(w io.Writer, names, slides []string) {
	headerColor.Fprintf(w, "Entries (%d, %d slides)\n", len(names), len(slides))
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w)
}

func printBundle(w io.Writer, b *model.SlideBundle) {
	headerColor.Fprintf(w, "Slide %s\n", b.SlideName)

	part := func(label, name string) {
		if name == "" {
			missingColor.Fprintf(w, "  %-8s (none)\n", label)
			return
		}
		fmt.Fprintf(w, "  %-8s %s\n", label, name)
	}
	part("layout", b.LayoutName)
	part("theme", b.ThemeName)

	images := make([]string, 0, len(b.Images))
	for name := range b.Images {
		images = append(images, name)
	}
	sort.Strings(images)
	for _, name := range images {
		part("image", name)
	}

	for _, warning := range b.Warnings {
		warningColor.Fprintf(w, "  warning: %s\n", warning)
	}
	fmt.Fprintln(w)
}

func printDescriptors(w io.Writer, descriptors []model.ShapeDescriptor) {
	headerColor.Fprintf(w, "Descriptors (%d)\n", len(descriptors))
	for i, d := range descriptors {
		switch v := d.(type) {
		case *model.TextDescriptor:
			fmt.Fprintf(w, "  %2d %-12s %-6s (%.1f, %.1f) %.1fx%.1f %q\n",
				i, model.DisplayName(v), v.Kind(), v.X, v.Y, v.Width, v.Height, v.Text)
		case *model.GeometricDescriptor:
			fmt.Fprintf(w, "  %2d %-12s %-6s (%.1f, %.1f) %.1fx%.1f fill=%s rotation=%.1f\n",
				i, model.DisplayName(v), v.Kind(), v.X, v.Y, v.Width, v.Height, v.FillColor, v.Rotation)
		case *model.LineDescriptor:
			end := v.End()
			fmt.Fprintf(w, "  %2d %-12s %-6s (%.1f, %.1f) -> (%.1f, %.1f) %s\n",
				i, model.DisplayName(v), v.Kind(), v.X, v.Y, end.X, end.Y, v.Color)
		case *model.ImageDescriptor:
			fmt.Fprintf(w, "  %2d %-12s %-6s (%.1f, %.1f) width=%.1f %d bytes\n",
				i, "-", v.Kind(), v.X, v.Y, v.Width, len(v.Payload))
		}
	}
}
