// Package remote provides a Canvas that drives a host document over HTTP.
//
// Creation and styling calls are queued locally and sent as one batch on
// Commit:
//
//	POST {endpoint}/batches  {"batch_id": "...", "operations": [...]}
//
// Vector images are sent one request each, so a failure belongs to that
// image only:
//
//	POST {endpoint}/images   {"svg": "...", "x": 0, "y": 0, "width": 0}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4096
)

// Operation is one queued canvas call
type Operation struct {
	Op     string        `json:"op"`
	Handle model.Handle  `json:"handle"`
	Text   string        `json:"text,omitempty"`
	Bounds *model.Bounds `json:"bounds,omitempty"`
	Start  *model.Point  `json:"start,omitempty"`
	End    *model.Point  `json:"end,omitempty"`
	Name   string        `json:"name,omitempty"`
	Font   *model.Font   `json:"font,omitempty"`
	Bullet *bool         `json:"bullet,omitempty"`
	Align  string        `json:"align,omitempty"`
	Angle  *float64      `json:"rotation,omitempty"`
	Color  string        `json:"color,omitempty"`
	Stroke *model.Stroke `json:"stroke,omitempty"`
}

// Batch is the request body of a commit
type Batch struct {
	BatchID    string      `json:"batch_id"`
	Operations []Operation `json:"operations"`
}

// Image is the request body of an image insertion
type Image struct {
	SVG   string  `json:"svg" masq:"secret"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// Canvas sends canvas calls to a host endpoint
type Canvas struct {
	endpoint string
	token    string
	client   *http.Client

	mu      sync.Mutex
	ops     []Operation
	handles map[model.Handle]struct{}
}

var _ interfaces.Canvas = (*Canvas)(nil)

// Option configures a remote Canvas
type Option func(*Canvas)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Canvas) {
		c.client = client
	}
}

// WithToken sets a bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Canvas) {
		c.token = token
	}
}

// New creates a remote canvas for endpoint
func New(endpoint string, opts ...Option) (*Canvas, error) {
	if endpoint == "" {
		return nil, goerr.New("canvas endpoint is required", goerr.T(types.ErrTagInvalidInput))
	}

	c := &Canvas{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: defaultTimeout},
		handles:  make(map[model.Handle]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Canvas) create(op Operation) model.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	op.Handle = model.Handle(uuid.NewString())
	c.handles[op.Handle] = struct{}{}
	c.ops = append(c.ops, op)
	return op.Handle
}

func (c *Canvas) enqueue(op Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.handles[op.Handle]; !ok {
		return goerr.New("unknown element handle",
			goerr.V("handle", op.Handle),
			goerr.V("op", op.Op),
			goerr.T(types.ErrTagNotFound),
		)
	}
	c.ops = append(c.ops, op)
	return nil
}

func (c *Canvas) CreateTextBox(text string, bounds model.Bounds) (model.Handle, error) {
	return c.create(Operation{Op: "createTextBox", Text: text, Bounds: &bounds}), nil
}

func (c *Canvas) CreateEllipse(bounds model.Bounds) (model.Handle, error) {
	return c.create(Operation{Op: "createEllipse", Bounds: &bounds}), nil
}

func (c *Canvas) CreateLine(start, end model.Point) (model.Handle, error) {
	return c.create(Operation{Op: "createLine", Start: &start, End: &end}), nil
}

func (c *Canvas) SetName(h model.Handle, name string) error {
	return c.enqueue(Operation{Op: "setName", Handle: h, Name: name})
}

func (c *Canvas) SetFont(h model.Handle, font model.Font) error {
	return c.enqueue(Operation{Op: "setFont", Handle: h, Font: &font})
}

func (c *Canvas) SetBullet(h model.Handle, enabled bool) error {
	return c.enqueue(Operation{Op: "setBullet", Handle: h, Bullet: &enabled})
}

func (c *Canvas) SetAlignment(h model.Handle, align model.Alignment) error {
	return c.enqueue(Operation{Op: "setAlignment", Handle: h, Align: string(align)})
}

func (c *Canvas) SetRotation(h model.Handle, degrees float64) error {
	return c.enqueue(Operation{Op: "setRotation", Handle: h, Angle: &degrees})
}

func (c *Canvas) SetFill(h model.Handle, color string) error {
	return c.enqueue(Operation{Op: "setFill", Handle: h, Color: color})
}

func (c *Canvas) SetStroke(h model.Handle, stroke model.Stroke) error {
	return c.enqueue(Operation{Op: "setStroke", Handle: h, Stroke: &stroke})
}

func (c *Canvas) HideStroke(h model.Handle) error {
	return c.enqueue(Operation{Op: "hideStroke", Handle: h})
}

// InsertVectorImage posts the image immediately
func (c *Canvas) InsertVectorImage(ctx context.Context, svg []byte, at model.Point, width float64) error {
	return c.post(ctx, "/images", Image{SVG: string(svg), X: at.X, Y: at.Y, Width: width})
}

// Commit posts every queued operation as one batch. The queue is cleared
// whether or not the host accepts it.
func (c *Canvas) Commit(ctx context.Context) error {
	c.mu.Lock()
	batch := Batch{BatchID: uuid.NewString(), Operations: c.ops}
	c.ops = nil
	c.handles = make(map[model.Handle]struct{})
	c.mu.Unlock()

	if batch.Operations == nil {
		batch.Operations = []Operation{}
	}

	ctxlog.From(ctx).Debug("Posting canvas batch",
		"batch_id", batch.BatchID,
		"operation_count", len(batch.Operations),
	)

	if err := c.post(ctx, "/batches", batch); err != nil {
		return goerr.Wrap(err, "failed to commit batch", goerr.V("batch_id", batch.BatchID))
	}
	return nil
}

// Discard drops every queued operation. Images already posted stay on the
// host.
func (c *Canvas) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
	c.handles = make(map[model.Handle]struct{})
}

func (c *Canvas) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to encode request body", goerr.V("path", path))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request to canvas host",
			goerr.V("path", path),
			goerr.T(types.ErrTagCanvas),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return goerr.New(fmt.Sprintf("canvas host returned %d", resp.StatusCode),
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(detail)),
			goerr.T(types.ErrTagCanvas),
		)
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
