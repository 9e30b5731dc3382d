package ffmpeg

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
)

const (
	DefaultImageSeconds        = 5.0
	DefaultEffectsImageSeconds = 3.0
	stderrTailBytes            = 800
	maxZoom                    = 1.2
)

type Config struct {
	Binary          string
	ProbeBinary     string
	TempDir         string
	FPS             int
	Timeout         time.Duration
	DownloadTimeout time.Duration
}

// Compiler renders still images and a narration track into an H.264 MP4.
type Compiler struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewCompiler(cfg Config, httpClient *http.Client, logger *zap.Logger) *Compiler {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.ProbeBinary == "" {
		cfg.ProbeBinary = "ffprobe"
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Compiler{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Compile always removes its session directory, whatever the outcome.
func (c *Compiler) Compile(ctx context.Context, images []entity.ImageAsset, audio *entity.AudioAsset, opts port.CompileOptions) (*port.CompileResult, error) {
	log := c.logger.With(zap.String("session_id", opts.SessionID))

	if opts.SessionID == "" || opts.SessionID == "." || opts.SessionID == ".." || filepath.Base(opts.SessionID) != opts.SessionID {
		return nil, fmt.Errorf("invalid session id %q", opts.SessionID)
	}
	sessionDir := filepath.Join(c.cfg.TempDir, opts.SessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	defer os.RemoveAll(sessionDir)

	imagePaths := c.materializeImages(ctx, images, sessionDir, log)
	if len(imagePaths) == 0 {
		return nil, entity.ErrNoImages
	}

	audioPath := ""
	if audio != nil && len(audio.Data) > 0 {
		audioPath = filepath.Join(sessionDir, "narration"+extensionFor(audio.MIMEType, ".mp3"))
		if err := os.WriteFile(audioPath, audio.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write audio: %w", err)
		}
	}

	perImage := DefaultImageSeconds
	if opts.UseEffects {
		perImage = DefaultEffectsImageSeconds
	}
	if audioPath != "" && audio.DurationSeconds > 0 {
		perImage = audio.DurationSeconds / float64(len(imagePaths))
	}
	total := perImage * float64(len(imagePaths))

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	plan := renderPlan{
		images:     imagePaths,
		audio:      audioPath,
		perImage:   perImage,
		total:      total,
		width:      opts.Width,
		height:     opts.Height,
		fps:        c.cfg.FPS,
		useEffects: opts.UseEffects,
		output:     opts.OutputPath,
	}
	if err := c.run(ctx, plan.args()); err != nil {
		return nil, err
	}
	if _, err := os.Stat(opts.OutputPath); err != nil {
		return nil, fmt.Errorf("ffmpeg produced no output: %w", err)
	}

	log.Info("video compiled",
		zap.Int("images", len(imagePaths)),
		zap.Float64("per_image_seconds", perImage),
		zap.Float64("duration_seconds", total),
		zap.Bool("effects", opts.UseEffects),
	)

	return &port.CompileResult{
		VideoPath:        opts.OutputPath,
		ImageCount:       len(imagePaths),
		PerImageDuration: perImage,
		Duration:         total,
	}, nil
}

func (c *Compiler) run(ctx context.Context, args []string) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, tail(stderr.Bytes(), stderrTailBytes))
	}
	return nil
}

// materializeImages writes every usable asset into dir in scene order. Assets
// that cannot be fetched are skipped.
func (c *Compiler) materializeImages(ctx context.Context, images []entity.ImageAsset, dir string, log *zap.Logger) []string {
	paths := make([]string, 0, len(images))
	for i, img := range images {
		data, mime, err := c.imageBytes(ctx, img)
		if err != nil {
			log.Warn("skipping image", zap.Int("index", img.Index), zap.Error(err))
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("image_%03d%s", i, extensionFor(mime, ".png")))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Warn("skipping image", zap.Int("index", img.Index), zap.Error(err))
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (c *Compiler) imageBytes(ctx context.Context, img entity.ImageAsset) ([]byte, string, error) {
	switch {
	case len(img.Data) > 0:
		return img.Data, img.MIMEType, nil
	case strings.HasPrefix(img.URL, "data:"):
		return decodeDataURL(img.URL)
	case img.URL != "":
		return c.download(ctx, img.URL)
	}
	return nil, "", fmt.Errorf("image %d has neither data nor url", img.Index)
}

func (c *Compiler) download(ctx context.Context, url string) ([]byte, string, error) {
	if c.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.DownloadTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("download image: empty body")
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeDataURL(s string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("unsupported data url")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}

func extensionFor(mime, fallback string) string {
	mime, _, _ = strings.Cut(mime, ";")
	switch strings.TrimSpace(mime) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	}
	return fallback
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
