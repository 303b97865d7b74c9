package interfaces

import (
	"context"

	"github.com/m-mizutani/reslide/pkg/domain/model"
)

// Canvas is the target document surface. Creation and styling calls are
// queued by the implementation and applied by Commit, or dropped by Discard. InsertVectorImage is
// executed on its own so a failure belongs to that image only.
// A Canvas is not safe for concurrent use.
type Canvas interface {
	CreateTextBox(text string, bounds model.Bounds) (model.Handle, error)
	CreateEllipse(bounds model.Bounds) (model.Handle, error)
	CreateLine(start, end model.Point) (model.Handle, error)
	InsertVectorImage(ctx context.Context, svg []byte, at model.Point, width float64) error

	SetName(h model.Handle, name string) error
	SetFont(h model.Handle, font model.Font) error
	SetBullet(h model.Handle, enabled bool) error
	SetAlignment(h model.Handle, align model.Alignment) error
	SetRotation(h model.Handle, degrees float64) error
	SetFill(h model.Handle, color string) error
	SetStroke(h model.Handle, stroke model.Stroke) error
	HideStroke(h model.Handle) error

	// Commit applies every queued call as one unit of work
	Commit(ctx context.Context) error
	// Discard drops every queued call without applying it
	Discard()
}
