package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/reslide/pkg/controller/http"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/canvas/memory"
	"github.com/m-mizutani/reslide/pkg/infra/canvas/remote"
	"github.com/m-mizutani/reslide/pkg/usecase"
)

const testSlide = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
        <p:spPr><a:xfrm><a:off x="444500" y="412137"/><a:ext cx="9146972" cy="640080"/></a:xfrm></p:spPr>
        <p:txBody><a:bodyPr/><a:p><a:r><a:rPr sz="2800" b="1"/><a:t>Creating a mind map</a:t></a:r></a:p></p:txBody>
      </p:sp>
    </p:spTree>
  </p:cSld>
</p:sld>`

// MockRebuildUseCase is a mock implementation of RebuildUseCase
type MockRebuildUseCase struct {
	rebuildFunc func(ctx context.Context, input *model.RebuildInput, canvas interfaces.Canvas) (*model.RebuildResult, error)
}

func (m *MockRebuildUseCase) Rebuild(ctx context.Context, input *model.RebuildInput, canvas interfaces.Canvas) (*model.RebuildResult, error) {
	return m.rebuildFunc(ctx, input, canvas)
}

func createTestPackage(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for filename, content := range files {
		writer, err := zipWriter.Create(filename)
		gt.NoError(t, err)

		_, err = writer.Write([]byte(content))
		gt.NoError(t, err)
	}

	gt.NoError(t, zipWriter.Close())
	return buf.Bytes()
}

func newUploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		gt.NoError(t, err)
		_, err = part.Write(data)
		gt.NoError(t, err)
	}
	gt.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(t *testing.T, server *controller.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	return w
}

func TestRebuildHandler_Success(t *testing.T) {
	ctx := context.Background()
	server, err := controller.NewServer(ctx, usecase.NewRebuild())
	gt.NoError(t, err)

	data := createTestPackage(t, map[string]string{"ppt/slides/slide1.xml": testSlide})
	w := serve(t, server, newUploadRequest(t, "/rebuild", "mindmap.pptx", data))
	gt.Equal(t, w.Code, http.StatusOK)

	var resp controller.RebuildResponse
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	gt.Equal(t, resp.SlideName, "ppt/slides/slide1.xml")
	gt.Equal(t, resp.Descriptors, 1)
	gt.Equal(t, resp.Reconstruct.Created, []string{"TextBox_2"})

	gt.Equal(t, len(resp.Scene.Elements), 1)
	title := resp.Scene.Elements[0]
	gt.Equal(t, title.Name, "TextBox_2")
	gt.Equal(t, title.Text, "Creating a mind map")
	gt.Equal(t, title.Font.Size, 28.0)
	gt.True(t, title.Font.Bold)
}

func TestRebuildHandler_Fixture(t *testing.T) {
	ctx := context.Background()
	extractor, err := usecase.NewDefaultFixtureExtractor()
	gt.NoError(t, err)

	server, err := controller.NewServer(ctx, usecase.NewRebuild(usecase.WithExtractor(extractor)))
	gt.NoError(t, err)

	data := createTestPackage(t, map[string]string{"ppt/slides/slide1.xml": testSlide})
	w := serve(t, server, newUploadRequest(t, "/rebuild", "mindmap.pptx", data))
	gt.Equal(t, w.Code, http.StatusOK)

	var resp controller.RebuildResponse
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	gt.Equal(t, len(resp.Scene.Elements), 8)
	gt.Equal(t, resp.Scene.Elements[7].Type, model.ElementImage)
}

func TestRebuildHandler_Status(t *testing.T) {
	ctx := context.Background()
	valid := createTestPackage(t, map[string]string{"ppt/slides/slide1.xml": testSlide})
	noSlides := createTestPackage(t, map[string]string{"[Content_Types].xml": "<Types/>"})

	testCases := []struct {
		name     string
		target   string
		filename string
		data     []byte
		status   int
	}{
		{name: "wrong extension", target: "/rebuild", filename: "deck.key", data: valid, status: http.StatusUnsupportedMediaType},
		{name: "no file", target: "/rebuild", status: http.StatusBadRequest},
		{name: "not a zip", target: "/rebuild", filename: "deck.pptx", data: []byte("hello"), status: http.StatusBadRequest},
		{name: "no slides", target: "/rebuild", filename: "deck.pptx", data: noSlides, status: http.StatusNotFound},
		{name: "missing slide index", target: "/rebuild?slide=4", filename: "deck.pptx", data: valid, status: http.StatusNotFound},
		{name: "invalid slide index", target: "/rebuild?slide=first", filename: "deck.pptx", data: valid, status: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, err := controller.NewServer(ctx, usecase.NewRebuild())
			gt.NoError(t, err)

			w := serve(t, server, newUploadRequest(t, tc.target, tc.filename, tc.data))
			gt.Equal(t, w.Code, tc.status)
		})
	}

	t.Run("rejected extension carries the reason", func(t *testing.T) {
		server, err := controller.NewServer(ctx, usecase.NewRebuild())
		gt.NoError(t, err)

		w := serve(t, server, newUploadRequest(t, "/rebuild", "deck.ppt", valid))
		var resp controller.RebuildResponse
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		gt.True(t, resp.Rejected)
		gt.Equal(t, resp.Reason, "Invalid file format. Please upload a .pptx file.")
	})

	t.Run("not multipart", func(t *testing.T) {
		server, err := controller.NewServer(ctx, usecase.NewRebuild())
		gt.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/rebuild", bytes.NewReader(valid))
		req.Header.Set("Content-Type", "application/octet-stream")
		gt.Equal(t, serve(t, server, req).Code, http.StatusBadRequest)
	})

	t.Run("canvas failure", func(t *testing.T) {
		uc := &MockRebuildUseCase{
			rebuildFunc: func(ctx context.Context, input *model.RebuildInput, canvas interfaces.Canvas) (*model.RebuildResult, error) {
				return nil, goerr.Wrap(errors.New("host unavailable"), "failed to commit batch", goerr.T(types.ErrTagCanvas))
			},
		}
		server, err := controller.NewServer(ctx, uc)
		gt.NoError(t, err)

		w := serve(t, server, newUploadRequest(t, "/rebuild", "deck.pptx", valid))
		gt.Equal(t, w.Code, http.StatusBadGateway)
		gt.String(t, w.Body.String()).Contains("host unavailable")
	})

	t.Run("upload too large", func(t *testing.T) {
		server, err := controller.NewServer(ctx, usecase.NewRebuild(), controller.WithMaxUploadSize(16))
		gt.NoError(t, err)

		w := serve(t, server, newUploadRequest(t, "/rebuild", "deck.pptx", valid))
		gt.Equal(t, w.Code, http.StatusRequestEntityTooLarge)
	})
}

func TestRebuildHandler_Signature(t *testing.T) {
	ctx := context.Background()
	secret := "test-secret"
	server, err := controller.NewServer(ctx, usecase.NewRebuild(), controller.WithSharedSecret(secret))
	gt.NoError(t, err)

	data := createTestPackage(t, map[string]string{"ppt/slides/slide1.xml": testSlide})

	t.Run("missing signature", func(t *testing.T) {
		w := serve(t, server, newUploadRequest(t, "/rebuild", "deck.pptx", data))
		gt.Equal(t, w.Code, http.StatusUnauthorized)
	})

	t.Run("valid signature", func(t *testing.T) {
		req := newUploadRequest(t, "/rebuild", "deck.pptx", data)

		var body bytes.Buffer
		_, err := body.ReadFrom(req.Body)
		gt.NoError(t, err)

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body.Bytes())
		signed := httptest.NewRequest(http.MethodPost, "/rebuild", bytes.NewReader(body.Bytes()))
		signed.Header.Set("Content-Type", req.Header.Get("Content-Type"))
		signed.Header.Set("X-Reslide-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))

		gt.Equal(t, serve(t, server, signed).Code, http.StatusOK)
	})
}

func TestRebuildHandler_Async(t *testing.T) {
	ctx := context.Background()
	done := make(chan *model.RebuildInput, 1)

	uc := &MockRebuildUseCase{
		rebuildFunc: func(ctx context.Context, input *model.RebuildInput, canvas interfaces.Canvas) (*model.RebuildResult, error) {
			done <- input
			return &model.RebuildResult{}, nil
		},
	}
	server, err := controller.NewServer(ctx, uc, controller.WithCanvasFactory(func() (interfaces.Canvas, error) {
		return remote.New("http://canvas.example.com/api")
	}))
	gt.NoError(t, err)

	w := serve(t, server, newUploadRequest(t, "/rebuild?async=true&slide=2", "deck.pptx", []byte("PK")))
	gt.Equal(t, w.Code, http.StatusAccepted)

	var resp controller.AcceptedResponse
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	gt.Equal(t, resp.Status, "accepted")

	input := <-done
	gt.Equal(t, input.Name, "deck.pptx")
	gt.Equal(t, input.SlideIndex, 2)
}

func TestRebuildHandler_AsyncNeedsRemoteCanvas(t *testing.T) {
	ctx := context.Background()
	uc := &MockRebuildUseCase{
		rebuildFunc: func(ctx context.Context, input *model.RebuildInput, canvas interfaces.Canvas) (*model.RebuildResult, error) {
			t.Error("rebuild must not run")
			return nil, nil
		},
	}
	server, err := controller.NewServer(ctx, uc, controller.WithCanvasFactory(func() (interfaces.Canvas, error) {
		return memory.New(), nil
	}))
	gt.NoError(t, err)

	w := serve(t, server, newUploadRequest(t, "/rebuild?async=true", "deck.pptx", []byte("PK")))
	gt.Equal(t, w.Code, http.StatusBadRequest)
	gt.String(t, w.Body.String()).Contains("remote canvas")
}
