package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/usecase"
)

type fakeGenerator struct {
	out    usecase.SyncTrailer
	err    error
	upload bool
	req    entity.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req entity.GenerationRequest, upload bool) (usecase.SyncTrailer, error) {
	f.req = req
	f.upload = upload
	return f.out, f.err
}

type fakeEnqueuer struct {
	jobID     uuid.UUID
	err       error
	job       *entity.TrailerJob
	statusErr error
	email     string
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, _ string, email string, req entity.GenerationRequest) (uuid.UUID, error) {
	f.email = email
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}
	return f.jobID, nil
}

func (f *fakeEnqueuer) Status(context.Context, string) (*entity.TrailerJob, error) {
	return f.job, f.statusErr
}

type fakeHealth struct {
	health usecase.PipelineHealth
}

func (f fakeHealth) CheckPipelineHealth(context.Context) usecase.PipelineHealth {
	return f.health
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(gen *fakeGenerator, enq *fakeEnqueuer, health fakeHealth, videosDir string) *gin.Engine {
	return newTestRouterWithOutput(gen, enq, health, videosDir, "")
}

func newTestRouterWithOutput(gen *fakeGenerator, enq *fakeEnqueuer, health fakeHealth, videosDir, outputDir string) *gin.Engine {
	h := NewHandler(gen, enq, health, time.Minute, zap.NewNop())
	return NewRouter(h, videosDir, outputDir, zap.NewNop())
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateTrailerSuccess(t *testing.T) {
	gen := &fakeGenerator{out: usecase.SyncTrailer{
		Result: entity.GenerationResult{
			Success:     true,
			VideoBuffer: []byte("secret-bytes"),
			Duration:    8,
			Metadata:    &entity.VideoMetadata{ImageCount: 3},
		},
		VideoURL: "http://localhost:8080/videos/adhoc_x.mp4",
	}}
	r := newTestRouter(gen, &fakeEnqueuer{}, fakeHealth{}, "")

	w := do(t, r, http.MethodPost, "/v1/trailers?upload=true", `{"summary":"A keeper guards a secret.","quality":"quick"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gen.upload)
	assert.Equal(t, entity.QualityQuick, gen.req.Quality)
	assert.NotContains(t, w.Body.String(), "secret-bytes")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "http://localhost:8080/videos/adhoc_x.mp4", body["videoUrl"])
	assert.Equal(t, 8.0, body["duration"])
}

func TestGenerateTrailerValidation(t *testing.T) {
	gen := &fakeGenerator{}
	r := newTestRouter(gen, &fakeEnqueuer{}, fakeHealth{}, "")

	w := do(t, r, http.MethodPost, "/v1/trailers", `{"summary":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "summary is required")

	w = do(t, r, http.MethodPost, "/v1/trailers", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateTrailerPipelineFailure(t *testing.T) {
	gen := &fakeGenerator{out: usecase.SyncTrailer{Result: entity.GenerationResult{Success: false, Error: "ffmpeg is not installed or not on PATH"}}}
	r := newTestRouter(gen, &fakeEnqueuer{}, fakeHealth{}, "")

	w := do(t, r, http.MethodPost, "/v1/trailers", `{"summary":"s"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "not installed")
}

func TestGenerateTrailerUploadError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upload video: bucket gone")}
	r := newTestRouter(gen, &fakeEnqueuer{}, fakeHealth{}, "")

	w := do(t, r, http.MethodPost, "/v1/trailers?upload=true", `{"summary":"s"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestEnqueueTrailer(t *testing.T) {
	id := uuid.New()
	enq := &fakeEnqueuer{jobID: id}
	r := newTestRouter(&fakeGenerator{}, enq, fakeHealth{}, "")

	w := do(t, r, http.MethodPost, "/v1/books/book-7/trailer", `{"summary":"s","authorEmail":"a@b.co","voiceType":"male"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "a@b.co", enq.email)

	var accepted map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, id.String(), accepted["jobId"])
	assert.Equal(t, "/v1/books/book-7/trailer", accepted["statusUrl"])
	assert.NotContains(t, accepted, "videoStatus")

	w = do(t, r, http.MethodPost, "/v1/books/book-7/trailer", `{"summary":"s","voiceType":"robot"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/v1/books/book-7/trailer", `{"summary":"s","authorEmail":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	enq.err = errors.New("publish trailer request: channel closed")
	w = do(t, r, http.MethodPost, "/v1/books/book-7/trailer", `{"summary":"s"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTrailerStatus(t *testing.T) {
	job := entity.NewTrailerJob("book-7", "", entity.GenerationRequest{Summary: "s"})
	job.MarkGenerating()
	job.Advance(entity.StageScripting)
	job.Advance(entity.StageImaging)
	enq := &fakeEnqueuer{job: job}
	r := newTestRouter(&fakeGenerator{}, enq, fakeHealth{}, "")

	w := do(t, r, http.MethodGet, "/v1/books/book-7/trailer", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, entity.VideoStatusGenerating, body.VideoStatus)
	assert.Equal(t, entity.StageImaging, body.Stage)

	enq.job, enq.statusErr = nil, entity.ErrJobNotFound
	w = do(t, r, http.MethodGet, "/v1/books/book-7/trailer", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPipelineHealth(t *testing.T) {
	r := newTestRouter(&fakeGenerator{}, &fakeEnqueuer{}, fakeHealth{health: usecase.PipelineHealth{MediaTool: true, VoiceGeneration: true, Ready: true}}, "")
	w := do(t, r, http.MethodGet, "/v1/health/pipeline", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mediaTool":true,"imageGeneration":false,"voiceGeneration":true,"ready":true}`, w.Body.String())

	r = newTestRouter(&fakeGenerator{}, &fakeEnqueuer{}, fakeHealth{health: usecase.PipelineHealth{MediaTool: true}}, "")
	w = do(t, r, http.MethodGet, "/v1/health/pipeline", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServesLocalVideos(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("mp4"), 0o644))
	r := newTestRouter(&fakeGenerator{}, &fakeEnqueuer{}, fakeHealth{}, dir)

	w := do(t, r, http.MethodGet, "/videos/clip.mp4", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mp4", w.Body.String())
}

func TestServesGeneratedPreviews(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "session.mp4"), []byte("preview"), 0o644))
	r := newTestRouterWithOutput(&fakeGenerator{}, &fakeEnqueuer{}, fakeHealth{}, "", out)

	w := do(t, r, http.MethodGet, "/generated/session.mp4", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preview", w.Body.String())
}
