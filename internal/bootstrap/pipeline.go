// Package bootstrap builds the service graph from configuration. Both
// binaries call it once at startup.
package bootstrap

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/config"
	"github.com/bookreel/trailer-service/internal/infra/ffmpeg"
	"github.com/bookreel/trailer-service/internal/infra/imagegen"
	"github.com/bookreel/trailer-service/internal/infra/llm"
	"github.com/bookreel/trailer-service/internal/infra/tts"
	"github.com/bookreel/trailer-service/internal/usecase"
)

// NewTextGenerator returns nil when no LLM provider is configured or the
// network is disabled.
func NewTextGenerator(cfg *config.Config, log *zap.Logger) *llm.FallbackClient {
	if cfg.NetworkDisabled {
		return nil
	}
	var primary, secondary port.CompletionProvider
	if cfg.LLMAPIKey != "" {
		primary = llm.NewOpenAIProvider("primary", cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	}
	if cfg.LLMFallbackAPIKey != "" {
		secondary = llm.NewOpenAIProvider("secondary", cfg.LLMFallbackAPIKey, cfg.LLMFallbackBaseURL, cfg.LLMFallbackModel)
	}
	client := llm.NewFallbackClient(primary, secondary, cfg.LLMTimeout, log.Named("llm"))
	if !client.Enabled() {
		return nil
	}
	return client
}

func NewImageGenerator(cfg *config.Config, text *llm.FallbackClient, log *zap.Logger) (*imagegen.Generator, error) {
	styles, err := imagegen.LoadStyles(cfg.StylesFile)
	if err != nil {
		return nil, fmt.Errorf("load aesthetic styles: %w", err)
	}

	var planText port.TextGenerator
	if text != nil {
		planText = text
	}
	planner := imagegen.NewScenePlanner(planText, styles)

	offline := cfg.NetworkDisabled || text == nil || cfg.ImageAPIKey == ""
	var primary, secondary port.ImageProvider
	if !offline {
		primary = imagegen.NewChatImageProvider(cfg.ImageAPIKey, cfg.ImageBaseURL, cfg.ImageModel)
		if cfg.ImageFallbackURL != "" {
			secondary = imagegen.NewPollinationsProvider(cfg.ImageFallbackURL, &http.Client{Timeout: cfg.ImageTimeout})
		}
	}

	return imagegen.NewGenerator(planner, styles, primary, secondary, imagegen.Options{
		Offline:     offline,
		Concurrency: cfg.ImageConcurrency,
		Timeout:     cfg.ImageTimeout,
	}, log.Named("imagegen")), nil
}

func NewCompiler(cfg *config.Config, log *zap.Logger) *ffmpeg.Compiler {
	return ffmpeg.NewCompiler(ffmpeg.Config{
		Binary:          cfg.FFmpegBinary,
		ProbeBinary:     cfg.FFprobeBinary,
		TempDir:         cfg.TempDir,
		FPS:             cfg.VideoFPS,
		Timeout:         cfg.CompileTimeout,
		DownloadTimeout: cfg.DownloadTimeout,
	}, &http.Client{Timeout: cfg.DownloadTimeout}, log.Named("ffmpeg"))
}

// NewPipeline wires the orchestrator and its collaborators.
func NewPipeline(cfg *config.Config, log *zap.Logger) (*usecase.Pipeline, error) {
	text := NewTextGenerator(cfg, log)
	images, err := NewImageGenerator(cfg, text, log)
	if err != nil {
		return nil, err
	}

	voice := tts.NewElevenLabs(tts.Config{
		APIKey:  cfg.ElevenLabsAPIKey,
		BaseURL: cfg.ElevenLabsBaseURL,
		Model:   cfg.ElevenLabsModel,
		Timeout: cfg.TTSTimeout,
	}, &http.Client{Timeout: cfg.TTSTimeout}, log.Named("tts"))
	compiler := NewCompiler(cfg, log)

	var narrator port.TextGenerator
	if text != nil {
		narrator = text
	}

	log.Info("pipeline configured",
		zap.Bool("llm", text != nil),
		zap.Bool("image_network", images.NetworkEnabled()),
		zap.Bool("voice", voice.Configured()),
		zap.String("output_dir", cfg.OutputDir),
	)

	return usecase.NewPipeline(compiler, narrator, images, voice, compiler, compiler, log.Named("pipeline"), usecase.PipelineConfig{
		OutputDir: cfg.OutputDir,
		Width:     cfg.VideoWidth,
		Height:    cfg.VideoHeight,
	}), nil
}
