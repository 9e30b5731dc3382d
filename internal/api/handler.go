package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/usecase"
)

type Generator interface {
	Generate(ctx context.Context, req entity.GenerationRequest, upload bool) (usecase.SyncTrailer, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, bookID, authorEmail string, req entity.GenerationRequest) (uuid.UUID, error)
	Status(ctx context.Context, bookID string) (*entity.TrailerJob, error)
}

type HealthChecker interface {
	CheckPipelineHealth(ctx context.Context) usecase.PipelineHealth
}

type Handler struct {
	generator Generator
	enqueuer  Enqueuer
	health    HealthChecker
	timeout   time.Duration
	logger    *zap.Logger
}

func NewHandler(generator Generator, enqueuer Enqueuer, health HealthChecker, timeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		generator: generator,
		enqueuer:  enqueuer,
		health:    health,
		timeout:   timeout,
		logger:    logger,
	}
}

type generateResponse struct {
	entity.GenerationResult
	VideoURL string `json:"videoUrl,omitempty"`
}

// GenerateTrailer runs a generation inline. The video bytes stay on the
// server; clients get the path or, with ?upload=true, the stored URL.
func (h *Handler) GenerateTrailer(c *gin.Context) {
	var req entity.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.generator.Generate(ctx, req, c.Query("upload") == "true")
	if err != nil {
		c.JSON(http.StatusBadGateway, generateResponse{GenerationResult: entity.GenerationResult{Success: false, Error: err.Error()}})
		return
	}
	if !out.Result.Success {
		c.JSON(http.StatusInternalServerError, generateResponse{GenerationResult: out.Result})
		return
	}
	c.JSON(http.StatusOK, generateResponse{GenerationResult: out.Result, VideoURL: out.VideoURL})
}

type enqueueRequest struct {
	AuthorEmail string `json:"authorEmail" binding:"omitempty,email"`
	entity.GenerationRequest
}

func (h *Handler) EnqueueTrailer(c *gin.Context) {
	bookID := c.Param("bookID")

	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	jobID, err := h.enqueuer.Enqueue(c.Request.Context(), bookID, req.AuthorEmail, req.GenerationRequest)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to enqueue trailer", zap.String("book_id", bookID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not queue trailer generation"})
		return
	}

	// No status is claimed here; the book record changes once a worker takes the job.
	c.JSON(http.StatusAccepted, gin.H{
		"jobId":     jobID,
		"bookId":    bookID,
		"statusUrl": "/v1/books/" + bookID + "/trailer",
	})
}

type statusResponse struct {
	JobID       uuid.UUID          `json:"jobId"`
	BookID      string             `json:"bookId"`
	VideoStatus entity.VideoStatus `json:"videoStatus"`
	Stage       entity.Stage       `json:"stage"`
	VideoURL    string             `json:"videoUrl,omitempty"`
	Duration    float64            `json:"duration,omitempty"`
	ImageCount  int                `json:"imageCount,omitempty"`
	VideoError  string             `json:"videoError,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

func (h *Handler) TrailerStatus(c *gin.Context) {
	bookID := c.Param("bookID")

	job, err := h.enqueuer.Status(c.Request.Context(), bookID)
	if errors.Is(err, entity.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no trailer for this book"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load trailer status", zap.String("book_id", bookID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		JobID:       job.ID,
		BookID:      job.BookID,
		VideoStatus: job.Status,
		Stage:       job.Stage,
		VideoURL:    job.VideoURL,
		Duration:    job.Duration,
		ImageCount:  job.ImageCount,
		VideoError:  job.ErrorMessage,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
	})
}

func (h *Handler) PipelineHealth(c *gin.Context) {
	health := h.health.CheckPipelineHealth(c.Request.Context())
	status := http.StatusOK
	if !health.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
