package entity

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the coarse state stored on the book record.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusGenerating VideoStatus = "generating"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Stage is the fine-grained position of one generation inside the pipeline.
type Stage string

const (
	StagePending   Stage = "PENDING"
	StageScripting Stage = "SCRIPTING"
	StageImaging   Stage = "IMAGING"
	StageVoicing   Stage = "VOICING"
	StageCompiling Stage = "COMPILING"
	StageCompleted Stage = "COMPLETED"
	StageFailed    Stage = "FAILED"
)

var stageOrder = map[Stage]int{
	StagePending:   0,
	StageScripting: 1,
	StageImaging:   2,
	StageVoicing:   3,
	StageCompiling: 4,
	StageCompleted: 5,
}

func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// CanTransition allows the next stage in order, or FAILED from any
// non-terminal stage.
func (s Stage) CanTransition(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	cur, ok := stageOrder[s]
	if !ok {
		return false
	}
	n, ok := stageOrder[next]
	return ok && n == cur+1
}

type TrailerJob struct {
	ID           uuid.UUID
	BookID       string
	AuthorEmail  string
	Status       VideoStatus
	Stage        Stage
	Request      GenerationRequest
	VideoURL     string
	Duration     float64
	ImageCount   int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewTrailerJob(bookID, authorEmail string, req GenerationRequest) *TrailerJob {
	now := time.Now().UTC()
	return &TrailerJob{
		ID:          uuid.New(),
		BookID:      bookID,
		AuthorEmail: authorEmail,
		Status:      VideoStatusPending,
		Stage:       StagePending,
		Request:     req,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *TrailerJob) MarkGenerating() {
	j.Status = VideoStatusGenerating
	j.Stage = StagePending
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

// Advance moves the job to the given stage; invalid transitions are ignored
// and reported as false.
func (j *TrailerJob) Advance(next Stage) bool {
	if !j.Stage.CanTransition(next) {
		return false
	}
	j.Stage = next
	j.UpdatedAt = time.Now().UTC()
	return true
}

func (j *TrailerJob) MarkCompleted(videoURL string, duration float64, imageCount int) {
	now := time.Now().UTC()
	j.Status = VideoStatusCompleted
	j.Stage = StageCompleted
	j.VideoURL = videoURL
	j.Duration = duration
	j.ImageCount = imageCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *TrailerJob) MarkFailed(errMsg string) {
	j.Status = VideoStatusFailed
	j.Stage = StageFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}
