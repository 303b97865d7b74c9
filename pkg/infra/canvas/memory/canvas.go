// Package memory provides a Canvas that keeps its scene in process memory.
// It backs the CLI and HTTP surfaces and doubles as a reference for the
// call semantics a real host has to honour.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
)

// Canvas queues created elements and styling calls until Commit. Vector
// images are validated when inserted and then queued in stacking order.
type Canvas struct {
	mu      sync.Mutex
	scene   model.Scene
	pending []*model.Element
	index   map[model.Handle]*model.Element
	next    int
}

var _ interfaces.Canvas = (*Canvas)(nil)

// New creates an empty canvas
func New() *Canvas {
	return &Canvas{
		index: make(map[model.Handle]*model.Element),
	}
}

func (c *Canvas) add(e *model.Element) model.Handle {
	c.next++
	e.Handle = model.Handle(fmt.Sprintf("%s-%d", e.Type, c.next))
	c.pending = append(c.pending, e)
	c.index[e.Handle] = e
	return e.Handle
}

// pendingElement returns a queued element. Committed elements are immutable.
func (c *Canvas) pendingElement(h model.Handle) (*model.Element, error) {
	e, ok := c.index[h]
	if !ok {
		return nil, goerr.New("unknown element handle",
			goerr.V("handle", h),
			goerr.T(types.ErrTagNotFound),
		)
	}
	return e, nil
}

func (c *Canvas) CreateTextBox(text string, bounds model.Bounds) (model.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(&model.Element{Type: model.ElementTextBox, Text: text, Bounds: bounds}), nil
}

func (c *Canvas) CreateEllipse(bounds model.Bounds) (model.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(&model.Element{Type: model.ElementEllipse, Bounds: bounds}), nil
}

func (c *Canvas) CreateLine(start, end model.Point) (model.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bounds := model.Bounds{
		X:      min(start.X, end.X),
		Y:      min(start.Y, end.Y),
		Width:  max(start.X, end.X) - min(start.X, end.X),
		Height: max(start.Y, end.Y) - min(start.Y, end.Y),
	}
	return c.add(&model.Element{Type: model.ElementLine, Bounds: bounds, Start: &start, End: &end}), nil
}

// InsertVectorImage places an SVG with its top-left corner at the given
// point. The height follows the aspect ratio of the document.
func (c *Canvas) InsertVectorImage(ctx context.Context, svg []byte, at model.Point, width float64) error {
	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "image insertion cancelled")
	}
	if width <= 0 {
		return goerr.New("image width must be positive", goerr.V("width", width), goerr.T(types.ErrTagInvalidInput))
	}

	aspect, err := svgAspect(svg)
	if err != nil {
		return goerr.Wrap(err, "failed to insert vector image")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.add(&model.Element{
		Type:   model.ElementImage,
		Bounds: model.Bounds{X: at.X, Y: at.Y, Width: width, Height: width * aspect},
		SVG:    string(svg),
	})
	ctxlog.From(ctx).Debug("Inserted vector image", "handle", h, "size_bytes", len(svg))
	return nil
}

func (c *Canvas) update(h model.Handle, fn func(e *model.Element) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.pendingElement(h)
	if err != nil {
		return err
	}
	return fn(e)
}

func (c *Canvas) SetName(h model.Handle, name string) error {
	return c.update(h, func(e *model.Element) error {
		e.Name = name
		return nil
	})
}

func (c *Canvas) SetFont(h model.Handle, font model.Font) error {
	return c.update(h, func(e *model.Element) error {
		if e.Type != model.ElementTextBox {
			return goerr.New("font applies to text boxes only", goerr.V("handle", h), goerr.T(types.ErrTagInvalidInput))
		}
		e.Font = &font
		return nil
	})
}

func (c *Canvas) SetBullet(h model.Handle, enabled bool) error {
	return c.update(h, func(e *model.Element) error {
		if e.Type != model.ElementTextBox {
			return goerr.New("bullets apply to text boxes only", goerr.V("handle", h), goerr.T(types.ErrTagInvalidInput))
		}
		e.Bullet = enabled
		return nil
	})
}

func (c *Canvas) SetAlignment(h model.Handle, align model.Alignment) error {
	return c.update(h, func(e *model.Element) error {
		e.Alignment = align
		return nil
	})
}

func (c *Canvas) SetRotation(h model.Handle, degrees float64) error {
	return c.update(h, func(e *model.Element) error {
		e.Rotation = degrees
		return nil
	})
}

func (c *Canvas) SetFill(h model.Handle, color string) error {
	return c.update(h, func(e *model.Element) error {
		e.Fill = color
		return nil
	})
}

func (c *Canvas) SetStroke(h model.Handle, stroke model.Stroke) error {
	return c.update(h, func(e *model.Element) error {
		e.Stroke = &stroke
		e.NoStroke = false
		return nil
	})
}

func (c *Canvas) HideStroke(h model.Handle) error {
	return c.update(h, func(e *model.Element) error {
		e.Stroke = nil
		e.NoStroke = true
		return nil
	})
}

// Commit moves every queued element into the scene
func (c *Canvas) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "commit cancelled")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.scene.Elements = append(c.scene.Elements, c.pending...)
	ctxlog.From(ctx).Debug("Committed canvas batch",
		"element_count", len(c.pending),
		"scene_size", len(c.scene.Elements),
	)
	c.pending = nil
	c.index = make(map[model.Handle]*model.Element)
	return nil
}

// Discard drops every queued element
func (c *Canvas) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.index = make(map[model.Handle]*model.Element)
}

// Pending returns the number of queued elements
func (c *Canvas) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Scene returns a copy of the committed scene
func (c *Canvas) Scene() *model.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()

	scene := &model.Scene{Elements: make([]*model.Element, len(c.scene.Elements))}
	for i, e := range c.scene.Elements {
		copied := *e
		scene.Elements[i] = &copied
	}
	return scene
}

// WriteJSON writes the committed scene as indented JSON
func (c *Canvas) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.Scene()); err != nil {
		return goerr.Wrap(err, "failed to encode scene")
	}
	return nil
}
