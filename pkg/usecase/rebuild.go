package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/archive"
)

const (
	reasonNoFile        = "No file selected."
	reasonInvalidFormat = "Invalid file format. Please upload a .pptx file."
)

type rebuildUseCase struct {
	extractor interfaces.DescriptorExtractor
	engine    *Engine
	open      interfaces.ArchiveOpener

	// one batch reaches the canvas at a time
	mu sync.Mutex
}

// RebuildOption configures the rebuild use case
type RebuildOption func(*rebuildUseCase)

// WithExtractor replaces the markup extractor
func WithExtractor(x interfaces.DescriptorExtractor) RebuildOption {
	return func(uc *rebuildUseCase) {
		uc.extractor = x
	}
}

// WithEngine replaces the default reconstruction engine
func WithEngine(e *Engine) RebuildOption {
	return func(uc *rebuildUseCase) {
		uc.engine = e
	}
}

// WithArchiveOpener replaces the package opener
func WithArchiveOpener(open interfaces.ArchiveOpener) RebuildOption {
	return func(uc *rebuildUseCase) {
		uc.open = open
	}
}

// NewRebuild creates a new instance of RebuildUseCase
func NewRebuild(opts ...RebuildOption) interfaces.RebuildUseCase {
	uc := &rebuildUseCase{
		extractor: NewMarkupExtractor(),
		engine:    NewEngine(),
		open:      archive.Opener,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CheckPackageName reports why a file name is rejected, or "" when accepted.
// Only the suffix is checked; the content is validated when opened.
func CheckPackageName(name string) string {
	switch {
	case name == "":
		return reasonNoFile
	case !strings.HasSuffix(name, model.PackageExtension):
		return reasonInvalidFormat
	default:
		return ""
	}
}

// Rebuild opens a package, locates one slide, extracts its descriptors and
// reconstructs them on the canvas. A rejected file name is not an error; the
// result carries the reason and nothing is opened.
func (uc *rebuildUseCase) Rebuild(ctx context.Context, input *model.RebuildInput, canvas interfaces.Canvas) (*model.RebuildResult, error) {
	logger := ctxlog.From(ctx)

	if input == nil {
		return nil, goerr.New("rebuild input is nil", goerr.T(types.ErrTagInvalidInput))
	}

	if reason := CheckPackageName(input.Name); reason != "" {
		logger.Warn("Rejected package", "name", input.Name, "reason", reason)
		return &model.RebuildResult{Rejected: true, Reason: reason}, nil
	}

	logger.Info("Rebuilding slide",
		"name", input.Name,
		"size_bytes", len(input.Data),
		"slide_index", input.SlideIndex,
	)

	pkg, err := uc.open(input.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open package", goerr.V("name", input.Name))
	}

	bundle, err := Locate(ctx, pkg, input.SlideIndex)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to locate slide", goerr.V("name", input.Name))
	}

	descriptors, err := uc.extractor.ExtractDescriptors(ctx, bundle)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract descriptors",
			goerr.V("name", input.Name),
			goerr.V("slide", bundle.SlideName),
		)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	reconstructed, err := uc.engine.Reconstruct(ctx, canvas, descriptors)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reconstruct slide",
			goerr.V("name", input.Name),
			goerr.V("slide", bundle.SlideName),
		)
	}

	return &model.RebuildResult{
		SlideName:   bundle.SlideName,
		Warnings:    bundle.Warnings,
		Descriptors: len(descriptors),
		Reconstruct: reconstructed,
	}, nil
}
