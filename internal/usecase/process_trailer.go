package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/tracing"
)

// TrailerGenerator is the part of Pipeline the background task needs.
type TrailerGenerator interface {
	GenerateVideo(ctx context.Context, req entity.GenerationRequest, onStage StageFunc) entity.GenerationResult
	CleanupVideo(path string) bool
}

type ProcessTrailerConfig struct {
	GenerationTimeout time.Duration
}

// ProcessTrailerUseCase handles one trailer.generate message: it owns the
// book's status record for the duration of the generation and publishes the
// outcome.
type ProcessTrailerUseCase struct {
	generator TrailerGenerator
	repo      port.TrailerJobRepository
	storage   port.VideoStorage
	locker    port.BookLocker
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	timeout   time.Duration
}

func NewProcessTrailerUseCase(
	generator TrailerGenerator,
	repo port.TrailerJobRepository,
	storage port.VideoStorage,
	locker port.BookLocker,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessTrailerConfig,
) *ProcessTrailerUseCase {
	return &ProcessTrailerUseCase{
		generator: generator,
		repo:      repo,
		storage:   storage,
		locker:    locker,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		timeout:   cfg.GenerationTimeout,
	}
}

// Execute returns an error only for infrastructure failures that happen
// before the generation starts; those are worth redelivering. A failed
// generation is terminal and recorded on the book.
func (uc *ProcessTrailerUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	ctx, span := otel.Tracer(tracing.TracerName).Start(ctx, "ProcessTrailerUseCase.Execute")
	defer span.End()

	var msg entity.TrailerRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}
	if reason := invalidMessageReason(msg); reason != "" {
		uc.logger.Error("rejecting invalid trailer request", zap.String("reason", reason), zap.String("book_id", msg.BookID))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "invalid_request: "+reason)
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("book.id", msg.BookID),
	)
	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("book_id", msg.BookID))

	job := entity.NewTrailerJob(msg.BookID, msg.AuthorEmail, msg.Request.Normalize())
	job.ID = msg.JobID

	release, err := uc.locker.Acquire(ctx, msg.BookID)
	if errors.Is(err, entity.ErrGenerationInProgress) {
		// The running job keeps the book record; only this request is rejected.
		log.Warn("generation already running for book, rejecting request")
		job.MarkFailed(entity.ErrGenerationInProgress.Error())
		uc.publishStatus(ctx, job, log)
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire book lock: %w", err)
	}
	defer release()

	job.MarkGenerating()
	if err := uc.repo.Claim(ctx, job); err != nil {
		log.Error("failed to claim book record", zap.Error(err))
		return fmt.Errorf("claim job: %w", err)
	}
	uc.publishStatus(ctx, job, log)

	genCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	result := uc.generator.GenerateVideo(genCtx, job.Request, func(stage entity.Stage) {
		if stage.Terminal() || !job.Advance(stage) {
			return
		}
		uc.persist(ctx, job, log)
	})
	if !result.Success {
		uc.handleFailure(ctx, job, result.Error, log)
		return nil
	}
	defer uc.generator.CleanupVideo(result.VideoPath)

	objectKey := fmt.Sprintf("books/%s/trailer_%s.mp4", job.BookID, job.ID.String())
	videoURL, err := uc.storage.UploadVideo(ctx, result.VideoPath, objectKey)
	if err != nil {
		log.Error("video upload failed", zap.Error(err))
		uc.handleFailure(ctx, job, "upload_video: "+err.Error(), log)
		return nil
	}

	imageCount := 0
	if result.Metadata != nil {
		imageCount = result.Metadata.ImageCount
	}
	job.MarkCompleted(videoURL, result.Duration, imageCount)
	uc.persist(ctx, job, log)
	uc.publishStatus(ctx, job, log)

	log.Info("trailer job completed",
		zap.String("video_url", videoURL),
		zap.Float64("duration_secs", result.Duration),
		zap.Int("image_count", imageCount),
	)
	return nil
}

func invalidMessageReason(msg entity.TrailerRequestMessage) string {
	if strings.TrimSpace(msg.BookID) == "" {
		return "book_id is required"
	}
	if err := msg.Request.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

func (uc *ProcessTrailerUseCase) handleFailure(ctx context.Context, job *entity.TrailerJob, errMsg string, log *zap.Logger) {
	job.MarkFailed(errMsg)
	uc.persist(ctx, job, log)
	uc.publishStatus(ctx, job, log)

	if job.AuthorEmail != "" {
		if err := uc.notifier.NotifyFailure(ctx, job.AuthorEmail, job.ID.String(), job.BookID, errMsg); err != nil {
			log.Warn("failed to notify author", zap.Error(err))
		}
	}
	log.Warn("trailer job failed", zap.String("error", errMsg))
}

// persist writes the job, tolerating a newer job having taken the record.
func (uc *ProcessTrailerUseCase) persist(ctx context.Context, job *entity.TrailerJob, log *zap.Logger) {
	err := uc.repo.Update(ctx, job)
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrStaleJob):
		log.Warn("book record taken by a newer job, dropping update", zap.String("stage", string(job.Stage)))
	default:
		log.Error("failed to persist job", zap.String("stage", string(job.Stage)), zap.Error(err))
	}
}

func (uc *ProcessTrailerUseCase) publishStatus(ctx context.Context, job *entity.TrailerJob, log *zap.Logger) {
	data, _ := json.Marshal(entity.NewStatusMessage(job))
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
