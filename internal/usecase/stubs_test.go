package usecase

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
)

type stubMedia struct {
	available bool
	calls     int
}

func (s *stubMedia) Available(context.Context) bool {
	s.calls++
	return s.available
}

type stubText struct {
	reply   string
	prompts []string
}

func (s *stubText) GenerateText(_ context.Context, prompt string) string {
	s.prompts = append(s.prompts, prompt)
	return s.reply
}

func (s *stubText) GenerateJSONLike(_ context.Context, prompt string) string {
	s.prompts = append(s.prompts, prompt)
	return s.reply
}

type imageCall struct {
	summary   string
	aesthetic string
	n         int
}

type stubImages struct {
	// drop lists the scene indices that fail to render.
	drop    map[int]bool
	network bool
	calls   []imageCall
}

func (s *stubImages) GenerateImages(_ context.Context, summary, aesthetic string, n int) []entity.ImageAsset {
	s.calls = append(s.calls, imageCall{summary: summary, aesthetic: aesthetic, n: n})
	var out []entity.ImageAsset
	for i := 0; i < n; i++ {
		if s.drop[i] {
			continue
		}
		out = append(out, entity.ImageAsset{Index: i, Source: entity.ImageSourcePlaceholder, Data: []byte("png"), MIMEType: "image/png"})
	}
	return out
}

func (s *stubImages) NetworkEnabled() bool { return s.network }

type stubVoice struct {
	configured bool
	err        error
	texts      []string
	voices     []entity.VoiceIdentity
}

func (s *stubVoice) Synthesize(_ context.Context, text string, voice entity.VoiceIdentity) (*entity.AudioAsset, error) {
	s.texts = append(s.texts, text)
	s.voices = append(s.voices, voice)
	if s.err != nil {
		return nil, s.err
	}
	if !s.configured {
		return nil, entity.ErrVoiceNotConfigured
	}
	return &entity.AudioAsset{
		Data:            []byte("mp3"),
		MIMEType:        "audio/mpeg",
		DurationSeconds: entity.EstimateSpeakingDuration(text),
	}, nil
}

func (s *stubVoice) Configured() bool { return s.configured }

// stubCompiler writes a tiny file at the requested path and divides the
// narration evenly over the images it received.
type stubCompiler struct {
	mu     sync.Mutex
	err    error
	images [][]entity.ImageAsset
	opts   []port.CompileOptions
}

func (s *stubCompiler) Compile(_ context.Context, images []entity.ImageAsset, audio *entity.AudioAsset, opts port.CompileOptions) (*port.CompileResult, error) {
	s.mu.Lock()
	s.images = append(s.images, images)
	s.opts = append(s.opts, opts)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if len(images) == 0 {
		return nil, errors.New("no images")
	}
	if err := os.WriteFile(opts.OutputPath, []byte("mp4-bytes"), 0o644); err != nil {
		return nil, err
	}
	total := audio.DurationSeconds
	return &port.CompileResult{
		VideoPath:        opts.OutputPath,
		ImageCount:       len(images),
		PerImageDuration: total / float64(len(images)),
		Duration:         total,
	}, nil
}
