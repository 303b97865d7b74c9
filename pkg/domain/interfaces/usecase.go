package interfaces

import (
	"context"

	"github.com/m-mizutani/reslide/pkg/domain/model"
)

// DescriptorExtractor turns slide markup into shape descriptors
type DescriptorExtractor interface {
	ExtractDescriptors(ctx context.Context, bundle *model.SlideBundle) ([]model.ShapeDescriptor, error)
}

// RebuildUseCase runs the whole package-to-canvas pipeline
type RebuildUseCase interface {
	Rebuild(ctx context.Context, input *model.RebuildInput, canvas Canvas) (*model.RebuildResult, error)
}

// PackageSource loads package bytes from a reference such as a file path
type PackageSource interface {
	Load(ctx context.Context, ref string) (name string, data []byte, err error)
}
