package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/metrics"
	"github.com/bookreel/trailer-service/internal/infra/tracing"
)

// StageFunc observes every stage change of one generation.
type StageFunc func(stage entity.Stage)

// DurationProber measures a compiled file. Only used for logging.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

type PipelineConfig struct {
	OutputDir string
	Width     int
	Height    int
}

type PipelineHealth struct {
	MediaTool       bool `json:"mediaTool"`
	ImageGeneration bool `json:"imageGeneration"`
	VoiceGeneration bool `json:"voiceGeneration"`
	Ready           bool `json:"ready"`
}

// Pipeline turns a book summary into a narrated vertical video. It holds no
// per-request state, so one instance serves concurrent calls.
type Pipeline struct {
	media    port.MediaTool
	text     port.TextGenerator
	images   port.ImageGenerator
	voice    port.SpeechSynthesizer
	compiler port.VideoCompiler
	prober   DurationProber
	cfg      PipelineConfig
	tracer   trace.Tracer
	logger   *zap.Logger
}

func NewPipeline(
	media port.MediaTool,
	text port.TextGenerator,
	images port.ImageGenerator,
	voice port.SpeechSynthesizer,
	compiler port.VideoCompiler,
	prober DurationProber,
	logger *zap.Logger,
	cfg PipelineConfig,
) *Pipeline {
	return &Pipeline{
		media:    media,
		text:     text,
		images:   images,
		voice:    voice,
		compiler: compiler,
		prober:   prober,
		cfg:      cfg,
		tracer:   otel.Tracer(tracing.TracerName),
		logger:   logger,
	}
}

// generation carries the state of one GenerateVideo call.
type generation struct {
	ctx       context.Context
	sessionID string
	onStage   StageFunc
	log       *zap.Logger
	started   time.Time
}

func (p *Pipeline) GenerateVideo(ctx context.Context, req entity.GenerationRequest, onStage StageFunc) (result entity.GenerationResult) {
	ctx, span := p.tracer.Start(ctx, "Pipeline.GenerateVideo")
	defer span.End()

	g := &generation{
		ctx:       ctx,
		sessionID: uuid.NewString(),
		onStage:   onStage,
		started:   time.Now(),
	}
	g.log = p.logger.With(zap.String("session_id", g.sessionID))
	span.SetAttributes(attribute.String("session.id", g.sessionID))

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("pipeline panic", zap.Any("panic", r))
			result = p.fail(g, span, fmt.Errorf("internal pipeline error: %v", r))
		}
	}()

	if err := req.Validate(); err != nil {
		return p.fail(g, span, err)
	}
	if !p.media.Available(ctx) {
		return p.fail(g, span, entity.ErrToolNotInstalled)
	}

	req = req.Normalize()
	g.log.Info("trailer generation started",
		zap.String("title", req.Title),
		zap.String("aesthetic", req.Aesthetic),
		zap.Int("num_images", req.NumImages),
		zap.Bool("effects", req.UseEffects),
	)

	var narration string
	p.stage(g, entity.StageScripting, func(ctx context.Context) error {
		narration = p.writeNarration(ctx, req)
		return nil
	})

	var images []entity.ImageAsset
	if err := p.stage(g, entity.StageImaging, func(ctx context.Context) error {
		images = p.images.GenerateImages(ctx, req.Summary, req.Aesthetic, req.NumImages)
		if len(images) == 0 {
			return entity.ErrNoImages
		}
		return nil
	}); err != nil {
		return p.fail(g, span, err)
	}

	var audio *entity.AudioAsset
	if err := p.stage(g, entity.StageVoicing, func(ctx context.Context) error {
		var err error
		audio, err = p.voice.Synthesize(ctx, narration, req.Voice)
		return voiceError(err)
	}); err != nil {
		return p.fail(g, span, err)
	}

	var compiled *port.CompileResult
	if err := p.stage(g, entity.StageCompiling, func(ctx context.Context) error {
		var err error
		compiled, err = p.compiler.Compile(ctx, images, audio, port.CompileOptions{
			SessionID:  g.sessionID,
			OutputPath: filepath.Join(p.cfg.OutputDir, g.sessionID+".mp4"),
			Width:      p.cfg.Width,
			Height:     p.cfg.Height,
			UseEffects: req.UseEffects,
		})
		if err != nil {
			return fmt.Errorf("video compilation failed: %w", err)
		}
		return nil
	}); err != nil {
		return p.fail(g, span, err)
	}

	buffer, err := os.ReadFile(compiled.VideoPath)
	if err != nil {
		os.Remove(compiled.VideoPath)
		return p.fail(g, span, fmt.Errorf("read compiled video: %w", err))
	}
	p.logMeasuredDuration(ctx, g.log, compiled)

	p.report(g, entity.StageCompleted)
	metrics.TrailersGeneratedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(g.started).Seconds())
	g.log.Info("trailer generation completed",
		zap.String("video_path", compiled.VideoPath),
		zap.Int("image_count", compiled.ImageCount),
		zap.Float64("duration_seconds", compiled.Duration),
	)

	return entity.GenerationResult{
		Success:     true,
		VideoPath:   compiled.VideoPath,
		VideoBuffer: buffer,
		Duration:    compiled.Duration,
		Metadata: &entity.VideoMetadata{
			Title:      req.Title,
			Aesthetic:  req.Aesthetic,
			Narration:  narration,
			ImageCount: compiled.ImageCount,
			SessionID:  g.sessionID,
		},
	}
}

// stage reports the transition, runs fn inside a span and records its duration.
func (p *Pipeline) stage(g *generation, stage entity.Stage, fn func(ctx context.Context) error) error {
	p.report(g, stage)
	name := strings.ToLower(string(stage))

	ctx, span := p.tracer.Start(g.ctx, "stage."+name)
	defer span.End()
	start := time.Now()

	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) report(g *generation, stage entity.Stage) {
	g.log.Debug("stage changed", zap.String("stage", string(stage)))
	if g.onStage != nil {
		g.onStage(stage)
	}
}

func (p *Pipeline) fail(g *generation, span trace.Span, err error) entity.GenerationResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.report(g, entity.StageFailed)
	metrics.TrailersGeneratedTotal.WithLabelValues("failed").Inc()
	g.log.Error("trailer generation failed", zap.Error(err))
	return entity.GenerationResult{Success: false, Error: err.Error()}
}

func (p *Pipeline) writeNarration(ctx context.Context, req entity.GenerationRequest) string {
	if utf8.RuneCountInString(req.Summary) <= shortSummaryChars {
		return req.Title + ". " + req.Summary
	}
	if p.text != nil {
		if narration := cleanNarration(p.text.GenerateText(ctx, narrationPrompt(req.Title, req.Summary))); narration != "" {
			return narration
		}
	}
	return truncateSummary(req.Summary, fallbackSummaryRune)
}

// voiceError keeps the two voice failure classes distinguishable.
func voiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrVoiceNotConfigured), errors.Is(err, entity.ErrVoiceProvider):
		return err
	default:
		return fmt.Errorf("%w: %v", entity.ErrVoiceProvider, err)
	}
}

func (p *Pipeline) logMeasuredDuration(ctx context.Context, log *zap.Logger, compiled *port.CompileResult) {
	if p.prober == nil {
		return
	}
	measured, err := p.prober.ProbeDuration(ctx, compiled.VideoPath)
	if err != nil {
		log.Debug("could not probe compiled video", zap.Error(err))
		return
	}
	log.Info("compiled video probed",
		zap.Float64("estimated_seconds", compiled.Duration),
		zap.Float64("measured_seconds", measured),
	)
}

func (p *Pipeline) CheckPipelineHealth(ctx context.Context) PipelineHealth {
	h := PipelineHealth{
		MediaTool:       p.media.Available(ctx),
		ImageGeneration: p.images.NetworkEnabled(),
		VoiceGeneration: p.voice.Configured(),
	}
	h.Ready = h.MediaTool && h.VoiceGeneration
	return h
}

// CleanupVideo removes a compiled video. Paths outside the output directory
// are refused.
func (p *Pipeline) CleanupVideo(path string) bool {
	if path == "" {
		return false
	}
	root, err := filepath.Abs(p.cfg.OutputDir)
	if err != nil {
		return false
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		p.logger.Warn("refusing to delete file outside output dir", zap.String("path", path))
		return false
	}
	if err := os.Remove(target); err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("failed to delete video", zap.String("path", path), zap.Error(err))
		}
		return false
	}
	return true
}
