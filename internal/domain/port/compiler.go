package port

import (
	"context"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

type CompileOptions struct {
	SessionID  string
	OutputPath string
	Width      int
	Height     int
	UseEffects bool
}

type CompileResult struct {
	VideoPath        string
	ImageCount       int
	PerImageDuration float64
	Duration         float64
}

// VideoCompiler turns still images plus an optional narration track into one video file.
type VideoCompiler interface {
	Compile(ctx context.Context, images []entity.ImageAsset, audio *entity.AudioAsset, opts CompileOptions) (*CompileResult, error)
}

// MediaTool is the preflight probe for the external media binary.
type MediaTool interface {
	Available(ctx context.Context) bool
}
