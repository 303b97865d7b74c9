package memory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/canvas/memory"
	"github.com/m-mizutani/reslide/pkg/usecase"
)

func TestCanvas_QueuesUntilCommit(t *testing.T) {
	ctx := context.Background()
	c := memory.New()

	h, err := c.CreateTextBox("Hello", model.Bounds{X: 1, Y: 2, Width: 30, Height: 40})
	gt.NoError(t, err)
	gt.NoError(t, c.SetName(h, "TextBox_1"))
	gt.NoError(t, c.SetFont(h, model.Font{Family: "Segoe UI", Size: 16}))
	gt.NoError(t, c.SetBullet(h, true))

	gt.Equal(t, len(c.Scene().Elements), 0)
	gt.Equal(t, c.Pending(), 1)

	gt.NoError(t, c.Commit(ctx))
	gt.Equal(t, c.Pending(), 0)

	scene := c.Scene()
	gt.Equal(t, len(scene.Elements), 1)
	e := scene.Elements[0]
	gt.Equal(t, e.Type, model.ElementTextBox)
	gt.Equal(t, e.Name, "TextBox_1")
	gt.Equal(t, e.Font.Family, "Segoe UI")
	gt.True(t, e.Bullet)

	t.Run("committed elements cannot be restyled", func(t *testing.T) {
		err := c.SetName(h, "renamed")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))
	})
}

func TestCanvas_Line(t *testing.T) {
	c := memory.New()

	h, err := c.CreateLine(model.Point{X: 100, Y: 50}, model.Point{X: 40, Y: 10})
	gt.NoError(t, err)
	gt.NoError(t, c.SetStroke(h, model.Stroke{Color: "#404040", Weight: 2}))
	gt.NoError(t, c.Commit(context.Background()))

	e := c.Scene().Elements[0]
	gt.Equal(t, e.Bounds, model.Bounds{X: 40, Y: 10, Width: 60, Height: 40})
	gt.Equal(t, *e.End, model.Point{X: 40, Y: 10})
	gt.Equal(t, *e.Stroke, model.Stroke{Color: "#404040", Weight: 2})
}

func TestCanvas_InsertVectorImage(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name   string
		svg    string
		height float64
	}{
		{name: "width and height", svg: `<svg xmlns="http://www.w3.org/2000/svg" width="200px" height="100px"/>`, height: 25},
		{name: "viewBox", svg: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 300"/>`, height: 150},
		{name: "no size", svg: `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`, height: 50},
		{name: "percent size falls back to viewBox", svg: `<svg width="100%" height="100%" viewBox="0,0,50,50"/>`, height: 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := memory.New()
			gt.NoError(t, c.InsertVectorImage(ctx, []byte(tc.svg), model.Point{X: 5, Y: 6}, 50))
			gt.NoError(t, c.Commit(ctx))

			e := c.Scene().Elements[0]
			gt.Equal(t, e.Type, model.ElementImage)
			gt.Equal(t, e.Bounds, model.Bounds{X: 5, Y: 6, Width: 50, Height: tc.height})
		})
	}

	t.Run("rejects a document that is not SVG", func(t *testing.T) {
		c := memory.New()
		err := c.InsertVectorImage(ctx, []byte(`<html/>`), model.Point{}, 50)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagFormat))
		gt.Equal(t, c.Pending(), 0)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		c := memory.New()
		gt.Error(t, c.InsertVectorImage(ctx, []byte("\x89PNG"), model.Point{}, 50))
	})
}

func TestCanvas_WithEngine(t *testing.T) {
	ctx := context.Background()
	c := memory.New()

	descriptors := []model.ShapeDescriptor{
		model.NewTextDescriptor(1, "Creating a mind map", model.EMUFrame{X: 444500, Y: 412137, Width: 9146972, Height: 640080}, model.TextStyle{Bold: true}),
		model.NewEllipseDescriptor(10, model.EMUFrame{Width: 95250, Height: 95250}, 0, model.FillNone),
		model.NewImageDescriptor(0, 0, 95250, []byte("not svg")),
		model.NewLineDescriptor(20, model.EMUFrame{Width: -95250}, ""),
	}

	result, err := usecase.NewEngine().Reconstruct(ctx, c, descriptors)
	gt.NoError(t, err)
	gt.Equal(t, len(result.ImageFailures), 1)

	scene := c.Scene()
	gt.Equal(t, len(scene.Elements), 3)
	gt.Equal(t, scene.Elements[0].Name, "TextBox_1")
	gt.Equal(t, scene.Elements[0].Font.Family, usecase.DefaultFontName)
	gt.Equal(t, scene.Elements[1].Fill, "")
	gt.True(t, scene.Elements[1].NoStroke)
	gt.Equal(t, scene.Elements[2].Name, "Line_20")

	var buf bytes.Buffer
	gt.NoError(t, c.WriteJSON(&buf))

	var decoded model.Scene
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	gt.Equal(t, len(decoded.Elements), 3)
	gt.Equal(t, decoded.Elements[2].Type, model.ElementLine)
}

func TestCanvas_Discard(t *testing.T) {
	c := memory.New()
	_, err := c.CreateEllipse(model.Bounds{Width: 1, Height: 1})
	gt.NoError(t, err)

	c.Discard()
	gt.Equal(t, c.Pending(), 0)
	gt.NoError(t, c.Commit(context.Background()))
	gt.Equal(t, len(c.Scene().Elements), 0)
}
