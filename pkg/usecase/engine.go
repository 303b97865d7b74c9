package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
)

const (
	DefaultFontName = "Segoe UI"
	DefaultFontSize = 16.0
)

// Engine issues canvas calls for a batch of descriptors
type Engine struct {
	imagePolicy model.ImageFailurePolicy
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithImageFailurePolicy sets what an image insertion failure does to the batch
func WithImageFailurePolicy(policy model.ImageFailurePolicy) EngineOption {
	return func(e *Engine) {
		e.imagePolicy = policy
	}
}

// NewEngine creates an Engine. Image failures are skipped by default.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		imagePolicy: model.ImageFailureSkip,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconstruct creates one element per descriptor, strictly in input order,
// then commits the batch once. A failing text, shape or line call aborts the
// batch before commit. A failing image is recorded and skipped unless the
// policy is ImageFailureAbort. An aborted batch is discarded from the canvas
// queue so a later commit cannot publish it.
func (e *Engine) Reconstruct(ctx context.Context, canvas interfaces.Canvas, descriptors []model.ShapeDescriptor) (*model.ReconstructResult, error) {
	result := &model.ReconstructResult{
		BatchID: uuid.NewString(),
		Created: make([]string, 0, len(descriptors)),
	}
	logger := ctxlog.From(ctx).With("batch_id", result.BatchID)

	if err := e.build(ctx, canvas, descriptors, result); err != nil {
		canvas.Discard()
		logger.Warn("Discarded batch", "queued_count", len(result.Created), "error", err)
		return nil, err
	}

	if err := canvas.Commit(ctx); err != nil {
		canvas.Discard()
		return nil, goerr.Wrap(err, "failed to commit batch",
			goerr.V("batch_id", result.BatchID),
			goerr.V("element_count", len(result.Created)),
			goerr.T(types.ErrTagCanvas),
		)
	}

	logger.Info("Reconstructed batch",
		"created_count", len(result.Created),
		"image_failure_count", len(result.ImageFailures),
	)

	return result, nil
}

// build queues every descriptor on the canvas and fills result
func (e *Engine) build(ctx context.Context, canvas interfaces.Canvas, descriptors []model.ShapeDescriptor, result *model.ReconstructResult) error {
	logger := ctxlog.From(ctx)

	for i, d := range descriptors {
		var err error
		switch v := d.(type) {
		case *model.TextDescriptor:
			err = e.text(canvas, v)
		case *model.GeometricDescriptor:
			err = e.geometric(canvas, v)
		case *model.LineDescriptor:
			err = e.line(canvas, v)
		case *model.ImageDescriptor:
			if err := canvas.InsertVectorImage(ctx, v.Payload, model.Point{X: v.X, Y: v.Y}, v.Width); err != nil {
				if e.imagePolicy == model.ImageFailureAbort {
					return goerr.Wrap(err, "failed to insert vector image",
						goerr.V("index", i),
						goerr.V("batch_id", result.BatchID),
						goerr.T(types.ErrTagCanvas),
					)
				}
				logger.Warn("Failed to insert vector image, continuing",
					"batch_id", result.BatchID,
					"index", i,
					"error", err,
				)
				result.ImageFailures = append(result.ImageFailures, model.ImageFailure{
					Index: i,
					Error: err.Error(),
				})
				continue
			}
			result.Created = append(result.Created, string(model.ElementImage))
			continue
		default:
			return goerr.New("unsupported descriptor",
				goerr.V("index", i),
				goerr.T(types.ErrTagInvalidInput),
			)
		}

		if err != nil {
			return goerr.Wrap(err, "failed to reconstruct descriptor",
				goerr.V("index", i),
				goerr.V("name", model.DisplayName(d)),
				goerr.V("batch_id", result.BatchID),
				goerr.T(types.ErrTagCanvas),
			)
		}
		result.Created = append(result.Created, model.DisplayName(d))
	}
	return nil
}

func (e *Engine) text(canvas interfaces.Canvas, d *model.TextDescriptor) error {
	h, err := canvas.CreateTextBox(d.Text, model.Bounds{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height})
	if err != nil {
		return goerr.Wrap(err, "failed to create text box")
	}
	if err := canvas.SetName(h, model.DisplayName(d)); err != nil {
		return goerr.Wrap(err, "failed to set name")
	}

	font := model.Font{
		Family: d.FontName,
		Size:   d.FontSize,
		Bold:   d.IsBold,
		Italic: d.IsItalic,
		Color:  d.FontColor,
	}
	if font.Family == "" {
		font.Family = DefaultFontName
	}
	if font.Size == 0 {
		font.Size = DefaultFontSize
	}
	if err := canvas.SetFont(h, font); err != nil {
		return goerr.Wrap(err, "failed to set font")
	}

	if d.IsBullet {
		if err := canvas.SetBullet(h, true); err != nil {
			return goerr.Wrap(err, "failed to enable bullets")
		}
	}
	if d.HorizontalAlignment != model.AlignUnset {
		if err := canvas.SetAlignment(h, d.HorizontalAlignment); err != nil {
			return goerr.Wrap(err, "failed to set alignment")
		}
	}
	return nil
}

func (e *Engine) geometric(canvas interfaces.Canvas, d *model.GeometricDescriptor) error {
	if d.Geometry != model.GeometryEllipse {
		return goerr.New("unsupported geometry", goerr.V("geometry", d.Geometry))
	}

	h, err := canvas.CreateEllipse(model.Bounds{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height})
	if err != nil {
		return goerr.Wrap(err, "failed to create ellipse")
	}
	if err := canvas.SetName(h, model.DisplayName(d)); err != nil {
		return goerr.Wrap(err, "failed to set name")
	}
	if err := canvas.SetRotation(h, d.Rotation); err != nil {
		return goerr.Wrap(err, "failed to set rotation")
	}
	if d.FillColor != model.FillNone {
		if err := canvas.SetFill(h, d.FillColor); err != nil {
			return goerr.Wrap(err, "failed to set fill")
		}
	}
	// ellipses are always drawn without an outline
	if err := canvas.HideStroke(h); err != nil {
		return goerr.Wrap(err, "failed to hide outline")
	}
	return nil
}

func (e *Engine) line(canvas interfaces.Canvas, d *model.LineDescriptor) error {
	h, err := canvas.CreateLine(d.Start(), d.End())
	if err != nil {
		return goerr.Wrap(err, "failed to create line")
	}
	if err := canvas.SetName(h, model.DisplayName(d)); err != nil {
		return goerr.Wrap(err, "failed to set name")
	}
	if err := canvas.SetStroke(h, model.Stroke{Color: d.Color, Weight: model.LineWeight}); err != nil {
		return goerr.Wrap(err, "failed to set stroke")
	}
	return nil
}
