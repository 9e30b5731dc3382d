package port

import (
	"context"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

// TrailerJobRepository stores the per-book status record. Update only
// applies when the stored job id matches, so a superseded job cannot
// overwrite the outcome of a newer one.
type TrailerJobRepository interface {
	Claim(ctx context.Context, job *entity.TrailerJob) error
	Update(ctx context.Context, job *entity.TrailerJob) error
	FindByBookID(ctx context.Context, bookID string) (*entity.TrailerJob, error)
}
