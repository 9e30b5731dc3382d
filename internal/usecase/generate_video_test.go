package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

type pipelineFixture struct {
	media    *stubMedia
	text     *stubText
	images   *stubImages
	voice    *stubVoice
	compiler *stubCompiler
	outDir   string
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		media:    &stubMedia{available: true},
		text:     &stubText{},
		images:   &stubImages{network: true},
		voice:    &stubVoice{configured: true},
		compiler: &stubCompiler{},
		outDir:   t.TempDir(),
	}
	f.pipeline = NewPipeline(f.media, f.text, f.images, f.voice, f.compiler, nil, zap.NewNop(), PipelineConfig{
		OutputDir: f.outDir,
		Width:     1080,
		Height:    1920,
	})
	return f
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []entity.Stage
}

func (r *stageRecorder) record(s entity.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s)
}

func twentyWords() string {
	return strings.TrimSpace(strings.Repeat("word ", 20))
}

func longSummary() string {
	return strings.TrimSpace(strings.Repeat("The lighthouse keeper hides a map that every smuggler wants. ", 10))
}

func TestGenerateVideoFailsFastWhenMediaToolMissing(t *testing.T) {
	f := newPipelineFixture(t)
	f.media.available = false
	rec := &stageRecorder{}

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: longSummary()}, rec.record)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not installed")
	assert.Empty(t, res.VideoPath)
	assert.Empty(t, f.text.prompts)
	assert.Empty(t, f.images.calls)
	assert.Empty(t, f.voice.texts)
	assert.Empty(t, f.compiler.opts)
	assert.Equal(t, []entity.Stage{entity.StageFailed}, rec.stages)
}

func TestGenerateVideoRejectsEmptySummary(t *testing.T) {
	f := newPipelineFixture(t)

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: "   "}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "summary is required")
	assert.Zero(t, f.media.calls)
}

func TestGenerateVideoShortSummarySkipsLLM(t *testing.T) {
	f := newPipelineFixture(t)

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{
		Title:   "Tidebound",
		Summary: "A keeper guards a secret.",
	}, nil)

	require.True(t, res.Success, res.Error)
	assert.Empty(t, f.text.prompts)
	require.Len(t, f.voice.texts, 1)
	assert.Equal(t, "Tidebound. A keeper guards a secret.", f.voice.texts[0])
	assert.Equal(t, "Tidebound. A keeper guards a secret.", res.Metadata.Narration)
}

func TestGenerateVideoQuickTierEndToEnd(t *testing.T) {
	f := newPipelineFixture(t)
	f.text.reply = twentyWords()
	rec := &stageRecorder{}
	summary := longSummary()

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{
		Title:     "Tidebound",
		Summary:   summary,
		Aesthetic: "Fantasy",
		Voice:     entity.VoiceMysterious,
		Quality:   entity.QualityQuick,
	}, rec.record)

	require.True(t, res.Success, res.Error)
	require.Len(t, f.text.prompts, 1)
	assert.Contains(t, f.text.prompts[0], "Tidebound")

	require.Len(t, f.images.calls, 1)
	assert.Equal(t, imageCall{summary: summary, aesthetic: "fantasy", n: 3}, f.images.calls[0])

	require.Len(t, f.voice.texts, 1)
	assert.Equal(t, twentyWords(), f.voice.texts[0])
	assert.Equal(t, entity.VoiceMysterious, f.voice.voices[0])

	require.Len(t, f.compiler.images, 1)
	assert.Len(t, f.compiler.images[0], 3)
	assert.False(t, f.compiler.opts[0].UseEffects)
	assert.Equal(t, 1080, f.compiler.opts[0].Width)

	assert.Equal(t, 8.0, res.Duration)
	assert.Equal(t, filepath.Join(f.outDir, res.Metadata.SessionID+".mp4"), res.VideoPath)
	assert.Equal(t, []byte("mp4-bytes"), res.VideoBuffer)
	assert.Equal(t, 3, res.Metadata.ImageCount)
	assert.Equal(t, "fantasy", res.Metadata.Aesthetic)
	assert.Equal(t, []entity.Stage{
		entity.StageScripting,
		entity.StageImaging,
		entity.StageVoicing,
		entity.StageCompiling,
		entity.StageCompleted,
	}, rec.stages)
}

func TestGenerateVideoContinuesWithSurvivingImages(t *testing.T) {
	f := newPipelineFixture(t)
	f.text.reply = twentyWords()
	f.images.drop = map[int]bool{1: true}

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{
		Summary: longSummary(),
		Quality: entity.QualityQuick,
	}, nil)

	require.True(t, res.Success, res.Error)
	require.Len(t, f.compiler.images, 1)
	assert.Len(t, f.compiler.images[0], 2)
	assert.Equal(t, 2, res.Metadata.ImageCount)
	assert.Equal(t, 8.0, res.Duration)
}

func TestGenerateVideoFailsWithoutImages(t *testing.T) {
	f := newPipelineFixture(t)
	f.images.drop = map[int]bool{0: true, 1: true, 2: true, 3: true}

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: "short"}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, entity.ErrNoImages.Error())
	assert.Empty(t, f.voice.texts)
}

func TestGenerateVideoVoiceFailuresAreDistinguishable(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.voice.configured = false

		res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: "short"}, nil)

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "voice synthesis is not configured")
		assert.Empty(t, f.compiler.opts)
	})

	t.Run("provider error", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.voice.err = errors.New("HTTP 401: invalid api key")

		res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: "short"}, nil)

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "voice provider failed")
		assert.Contains(t, res.Error, "401")
		assert.NotContains(t, res.Error, "not configured")
	})
}

func TestGenerateVideoFallsBackToTruncatedSummary(t *testing.T) {
	f := newPipelineFixture(t)
	f.text.reply = ""
	summary := longSummary()

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: summary}, nil)

	require.True(t, res.Success, res.Error)
	require.Len(t, f.voice.texts, 1)
	narration := f.voice.texts[0]
	assert.True(t, strings.HasSuffix(narration, "..."))
	assert.LessOrEqual(t, len([]rune(narration)), fallbackSummaryRune+3)
	assert.True(t, strings.HasPrefix(summary, strings.TrimSuffix(narration, "...")))
}

func TestGenerateVideoReportsCompileFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.compiler.err = errors.New("ffmpeg exited with status 1: invalid filter")

	res := f.pipeline.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: "short"}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "video compilation failed")
	assert.Empty(t, res.VideoPath)
	entries, err := os.ReadDir(f.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateVideoWithoutTextGenerator(t *testing.T) {
	f := newPipelineFixture(t)
	p := NewPipeline(f.media, nil, f.images, f.voice, f.compiler, nil, zap.NewNop(), PipelineConfig{OutputDir: f.outDir})

	res := p.GenerateVideo(context.Background(), entity.GenerationRequest{Summary: longSummary()}, nil)

	require.True(t, res.Success, res.Error)
	assert.True(t, strings.HasSuffix(f.voice.texts[0], "..."))
}

func TestCheckPipelineHealth(t *testing.T) {
	f := newPipelineFixture(t)

	h := f.pipeline.CheckPipelineHealth(context.Background())
	assert.Equal(t, PipelineHealth{MediaTool: true, ImageGeneration: true, VoiceGeneration: true, Ready: true}, h)

	f.voice.configured = false
	f.images.network = false
	h = f.pipeline.CheckPipelineHealth(context.Background())
	assert.True(t, h.MediaTool)
	assert.False(t, h.ImageGeneration)
	assert.False(t, h.Ready)
}

func TestCleanupVideo(t *testing.T) {
	f := newPipelineFixture(t)

	inside := filepath.Join(f.outDir, "abc.mp4")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0o644))
	assert.True(t, f.pipeline.CleanupVideo(inside))
	assert.NoFileExists(t, inside)
	assert.False(t, f.pipeline.CleanupVideo(inside))

	outside := filepath.Join(t.TempDir(), "keep.mp4")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	assert.False(t, f.pipeline.CleanupVideo(outside))
	assert.FileExists(t, outside)

	assert.False(t, f.pipeline.CleanupVideo(filepath.Join(f.outDir, "..", "escape.mp4")))
	assert.False(t, f.pipeline.CleanupVideo(f.outDir))
}
