package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/utils/async"
)

const (
	formFileField   = "file"
	signatureHeader = "X-Reslide-Signature-256"
	multipartMemory = 32 << 20
)

// RebuildResponse is the body of a successful /rebuild call
type RebuildResponse struct {
	*model.RebuildResult
	Scene *model.Scene `json:"scene,omitempty"`
}

// AcceptedResponse is the body of an asynchronous /rebuild call
type AcceptedResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
}

type sceneExporter interface {
	Scene() *model.Scene
}

// RebuildHandler reconstructs an uploaded package
type RebuildHandler struct {
	rebuildUC     interfaces.RebuildUseCase
	newCanvas     CanvasFactory
	maxUploadSize int64
	secret        string
}

// NewRebuildHandler creates a new RebuildHandler
func NewRebuildHandler(rebuildUC interfaces.RebuildUseCase, cfg *config) *RebuildHandler {
	return &RebuildHandler{
		rebuildUC:     rebuildUC,
		newCanvas:     cfg.newCanvas,
		maxUploadSize: cfg.maxUploadSize,
		secret:        cfg.sharedSecret,
	}
}

// Handle processes POST /rebuild. The package is the multipart field "file";
// the optional "slide" query selects slide<N>.xml and "async=true" returns
// 202 immediately. Async is only accepted when the canvas delivers its batch
// somewhere else than the response.
func (h *RebuildHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Read payload
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, goerr.Wrap(err, "package is too large", goerr.V("limit", tooLarge.Limit)), http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error("Failed to read request body", "error", err)
		writeError(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature
	if h.secret != "" && !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		logger.Warn("Invalid request signature")
		writeError(ctx, w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	input, err := h.parseInput(r, body)
	if err != nil {
		logger.Warn("Invalid rebuild request", "error", err)
		writeError(ctx, w, err, http.StatusBadRequest)
		return
	}

	canvas, err := h.newCanvas()
	if err != nil {
		logger.Error("Failed to create canvas", "error", err)
		writeError(ctx, w, err, http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("async") == "true" {
		// an in-process scene is dropped with the request, so it has no reader
		if _, ok := canvas.(sceneExporter); ok {
			logger.Warn("Asynchronous rebuild needs a remote canvas")
			writeError(ctx, w, goerr.New("async=true requires a remote canvas",
				goerr.T(types.ErrTagInvalidInput),
			), http.StatusBadRequest)
			return
		}
		async.Dispatch(ctx, func(ctx context.Context) error {
			result, err := h.rebuildUC.Rebuild(ctx, input, canvas)
			if err != nil {
				return err
			}
			ctxlog.From(ctx).Info("Asynchronous rebuild finished",
				"name", input.Name,
				"rejected", result.Rejected,
				"descriptors", result.Descriptors,
			)
			return nil
		})
		writeJSON(ctx, w, http.StatusAccepted, &AcceptedResponse{
			Status:    "accepted",
			RequestID: middleware.GetReqID(ctx),
		})
		return
	}

	result, err := h.rebuildUC.Rebuild(ctx, input, canvas)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Failed to rebuild slide", "error", err, "name", input.Name)
		} else {
			logger.Warn("Rebuild request failed", "error", err, "name", input.Name)
		}
		writeError(ctx, w, err, status)
		return
	}

	if result.Rejected {
		status := http.StatusUnsupportedMediaType
		if input.Name == "" {
			status = http.StatusBadRequest
		}
		writeJSON(ctx, w, status, &RebuildResponse{RebuildResult: result})
		return
	}

	resp := &RebuildResponse{RebuildResult: result}
	if exporter, ok := canvas.(sceneExporter); ok {
		resp.Scene = exporter.Scene()
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *RebuildHandler) parseInput(r *http.Request, body []byte) (*model.RebuildInput, error) {
	input := &model.RebuildInput{}

	if s := r.URL.Query().Get("slide"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, goerr.New("slide must be a non-negative integer", goerr.V("slide", s))
		}
		input.SlideIndex = n
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, goerr.New("request must be multipart/form-data",
			goerr.V("content_type", r.Header.Get("Content-Type")),
		)
	}
	form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(multipartMemory)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse multipart form")
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File[formFileField]
	if len(files) == 0 {
		// an empty name is rejected by the use case as "no file selected"
		return input, nil
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read uploaded file")
	}

	input.Name = files[0].Filename
	input.Data = data
	return input, nil
}

// verifySignature verifies the request signature
func (h *RebuildHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

// statusOf maps error tags to HTTP status codes
func statusOf(err error) int {
	switch {
	case goerr.HasTag(err, types.ErrTagInvalidInput), goerr.HasTag(err, types.ErrTagFormat):
		return http.StatusBadRequest
	case goerr.HasTag(err, types.ErrTagNotFound):
		return http.StatusNotFound
	case goerr.HasTag(err, types.ErrTagCanvas):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
