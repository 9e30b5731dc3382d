package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/entity"
	"github.com/bookreel/trailer-service/internal/domain/port"
)

// EnqueueTrailerUseCase validates a request and hands it to the workers.
type EnqueueTrailerUseCase struct {
	publisher port.TrailerRequestPublisher
	repo      port.TrailerJobRepository
	logger    *zap.Logger
}

func NewEnqueueTrailerUseCase(publisher port.TrailerRequestPublisher, repo port.TrailerJobRepository, logger *zap.Logger) *EnqueueTrailerUseCase {
	return &EnqueueTrailerUseCase{publisher: publisher, repo: repo, logger: logger}
}

func (uc *EnqueueTrailerUseCase) Enqueue(ctx context.Context, bookID, authorEmail string, req entity.GenerationRequest) (uuid.UUID, error) {
	if strings.TrimSpace(bookID) == "" {
		return uuid.Nil, fmt.Errorf("%w: book id is required", entity.ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}

	msg := entity.TrailerRequestMessage{
		JobID:       uuid.New(),
		BookID:      bookID,
		AuthorEmail: authorEmail,
		Request:     req,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal trailer request: %w", err)
	}
	if err := uc.publisher.PublishRequest(ctx, data); err != nil {
		return uuid.Nil, fmt.Errorf("publish trailer request: %w", err)
	}

	uc.logger.Info("trailer request enqueued", zap.String("job_id", msg.JobID.String()), zap.String("book_id", bookID))
	return msg.JobID, nil
}

// Status returns the last recorded trailer job of a book.
func (uc *EnqueueTrailerUseCase) Status(ctx context.Context, bookID string) (*entity.TrailerJob, error) {
	return uc.repo.FindByBookID(ctx, bookID)
}
