package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

// TrailerRepository keeps one status row per book. The row belongs to the
// most recent job that claimed it.
type TrailerRepository struct {
	pool *pgxpool.Pool
}

func NewTrailerRepository(pool *pgxpool.Pool) *TrailerRepository {
	return &TrailerRepository{pool: pool}
}

// Claim inserts the book row or hands an existing one over to job.
func (r *TrailerRepository) Claim(ctx context.Context, job *entity.TrailerJob) error {
	request, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	query := `
		INSERT INTO book_trailers (
			book_id, job_id, author_email, video_status, stage, request,
			video_url, duration_seconds, image_count, video_error,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (book_id) DO UPDATE SET
			job_id=EXCLUDED.job_id, author_email=EXCLUDED.author_email,
			video_status=EXCLUDED.video_status, stage=EXCLUDED.stage,
			request=EXCLUDED.request, video_error='',
			updated_at=EXCLUDED.updated_at, completed_at=NULL`

	_, err = r.pool.Exec(ctx, query,
		job.BookID, job.ID, job.AuthorEmail, string(job.Status), string(job.Stage), request,
		job.VideoURL, job.Duration, job.ImageCount, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("claim trailer row: %w", err)
	}
	return nil
}

// Update writes the job state only while job still owns the row.
func (r *TrailerRepository) Update(ctx context.Context, job *entity.TrailerJob) error {
	query := `
		UPDATE book_trailers SET
			video_status=$3, stage=$4, video_url=$5, duration_seconds=$6,
			image_count=$7, video_error=$8, updated_at=$9, completed_at=$10
		WHERE book_id=$1 AND job_id=$2`

	tag, err := r.pool.Exec(ctx, query,
		job.BookID, job.ID, string(job.Status), string(job.Stage), job.VideoURL,
		job.Duration, job.ImageCount, job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update trailer row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrStaleJob
	}
	return nil
}

func (r *TrailerRepository) FindByBookID(ctx context.Context, bookID string) (*entity.TrailerJob, error) {
	query := `
		SELECT job_id, book_id, author_email, video_status, stage, request,
			video_url, duration_seconds, image_count, video_error,
			created_at, updated_at, completed_at
		FROM book_trailers WHERE book_id=$1`

	job := &entity.TrailerJob{}
	var status, stage string
	var request []byte
	err := r.pool.QueryRow(ctx, query, bookID).Scan(
		&job.ID, &job.BookID, &job.AuthorEmail, &status, &stage, &request,
		&job.VideoURL, &job.Duration, &job.ImageCount, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find trailer by book id: %w", err)
	}
	if err := json.Unmarshal(request, &job.Request); err != nil {
		return nil, fmt.Errorf("decode stored request: %w", err)
	}
	job.Status = entity.VideoStatus(status)
	job.Stage = entity.Stage(stage)
	return job, nil
}
