package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/infra/config"
	"github.com/bookreel/trailer-service/internal/infra/lock"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LLMTimeout:       time.Second,
		ImageTimeout:     time.Second,
		ImageConcurrency: 2,
		ImageBaseURL:     "https://images.test/v1",
		ImageFallbackURL: "https://fallback.test",
		FFmpegBinary:     "ffmpeg",
		VideoWidth:       1080,
		VideoHeight:      1920,
		TempDir:          filepath.Join(dir, "tmp"),
		OutputDir:        filepath.Join(dir, "out"),
		LocalStoreDir:    filepath.Join(dir, "videos"),
		LocalPublicURL:   "http://localhost:8080",
		LocalVideoTTL:    time.Hour,
		JanitorSpec:      "@every 1h",
	}
}

func TestTextGeneratorDisabledWithoutKeys(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, NewTextGenerator(cfg, zap.NewNop()))

	cfg.LLMFallbackAPIKey = "gsk"
	assert.NotNil(t, NewTextGenerator(cfg, zap.NewNop()))

	cfg.NetworkDisabled = true
	assert.Nil(t, NewTextGenerator(cfg, zap.NewNop()))
}

func TestImageGeneratorOfflineCases(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMAPIKey = "sk"
	cfg.ImageAPIKey = "img"
	text := NewTextGenerator(cfg, zap.NewNop())

	gen, err := NewImageGenerator(cfg, text, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, gen.NetworkEnabled())

	gen, err = NewImageGenerator(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, gen.NetworkEnabled())

	cfg.ImageAPIKey = ""
	gen, err = NewImageGenerator(cfg, text, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, gen.NetworkEnabled())
}

func TestPipelineHealthWithoutVoiceKey(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewPipeline(cfg, zap.NewNop())
	require.NoError(t, err)

	h := p.CheckPipelineHealth(context.Background())
	assert.False(t, h.VoiceGeneration)
	assert.False(t, h.ImageGeneration)
	assert.False(t, h.Ready)
}

func TestLocalStorageAndLockFallbacks(t *testing.T) {
	cfg := testConfig(t)

	storage, store, err := NewVideoStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Same(t, store, storage)
	_, err = os.Stat(cfg.LocalStoreDir)
	assert.NoError(t, err)

	locker, closeFn, err := NewBookLocker(cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &lock.LocalLocker{}, locker)
}

func TestStartJanitorRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	_, store, err := NewVideoStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	cfg.JanitorSpec = "every now and then"
	_, err = StartJanitor(store, cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.JanitorSpec = "@every 1h"
	c, err := StartJanitor(store, cfg, zap.NewNop())
	require.NoError(t, err)
	c.Stop()

	c, err = StartJanitor(nil, cfg, zap.NewNop())
	require.NoError(t, err)
	c.Stop()
}

func TestSweepVideosCleansOutputAndStore(t *testing.T) {
	cfg := testConfig(t)
	_, store, err := NewVideoStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))

	past := time.Now().Add(-2 * cfg.LocalVideoTTL)
	staleOutput := filepath.Join(cfg.OutputDir, "session-a.mp4")
	freshOutput := filepath.Join(cfg.OutputDir, "session-b.mp4")
	staleStored := filepath.Join(store.Dir(), "books_b_trailer.mp4")
	for _, p := range []string{staleOutput, freshOutput, staleStored} {
		require.NoError(t, os.WriteFile(p, []byte("mp4"), 0o644))
	}
	require.NoError(t, os.Chtimes(staleOutput, past, past))
	require.NoError(t, os.Chtimes(staleStored, past, past))

	sweepVideos(store, cfg, zap.NewNop())

	assert.NoFileExists(t, staleOutput)
	assert.NoFileExists(t, staleStored)
	assert.FileExists(t, freshOutput)
}

func TestSweepVideosWithoutLocalStore(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	stale := filepath.Join(cfg.OutputDir, "leftover.mp4")
	require.NoError(t, os.WriteFile(stale, []byte("mp4"), 0o644))
	past := time.Now().Add(-2 * cfg.LocalVideoTTL)
	require.NoError(t, os.Chtimes(stale, past, past))

	sweepVideos(nil, cfg, zap.NewNop())

	assert.NoFileExists(t, stale)
}
