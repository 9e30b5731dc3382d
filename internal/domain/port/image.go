package port

import (
	"context"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

type AspectRatio struct {
	Width  int
	Height int
}

// ImageProvider renders one prompt into one image.
type ImageProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, aspect AspectRatio) (entity.ImageAsset, error)
}

// ImageGenerator returns at most numImages assets in scene order.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, summary, aesthetic string, numImages int) []entity.ImageAsset
	NetworkEnabled() bool
}
