package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
)

// GenerateTrailerUseCase runs the pipeline inline for the synchronous API.
type GenerateTrailerUseCase struct {
	generator  TrailerGenerator
	storage    port.VideoStorage
	previewURL string
	logger     *zap.Logger
}

type SyncTrailer struct {
	Result   entity.GenerationResult
	VideoURL string
}

// PreviewPath is where the API serves compiled videos that were not uploaded.
const PreviewPath = "/generated/"

// previewBaseURL is the public base of the API; an empty value leaves
// non-uploaded results without a URL.
func NewGenerateTrailerUseCase(generator TrailerGenerator, storage port.VideoStorage, previewBaseURL string, logger *zap.Logger) *GenerateTrailerUseCase {
	return &GenerateTrailerUseCase{
		generator:  generator,
		storage:    storage,
		previewURL: strings.TrimRight(previewBaseURL, "/"),
		logger:     logger,
	}
}

// Generate returns the pipeline result. With upload set, the video is moved
// to storage and the local copy removed. Otherwise it stays in the output dir,
// served under PreviewPath until the janitor expires it.
func (uc *GenerateTrailerUseCase) Generate(ctx context.Context, req entity.GenerationRequest, upload bool) (SyncTrailer, error) {
	res := uc.generator.GenerateVideo(ctx, req, nil)
	out := SyncTrailer{Result: res}
	if !res.Success {
		return out, nil
	}
	if !upload || uc.storage == nil {
		if uc.previewURL != "" {
			out.VideoURL = uc.previewURL + PreviewPath + filepath.Base(res.VideoPath)
		}
		return out, nil
	}
	defer uc.generator.CleanupVideo(res.VideoPath)

	key := "adhoc/" + filepath.Base(res.VideoPath)
	url, err := uc.storage.UploadVideo(ctx, res.VideoPath, key)
	if err != nil {
		uc.logger.Error("upload of generated trailer failed", zap.String("path", res.VideoPath), zap.Error(err))
		return out, fmt.Errorf("upload video: %w", err)
	}
	out.VideoURL = url
	out.Result.VideoPath = ""
	return out, nil
}
