package entity

import "github.com/google/uuid"

// TrailerRequestMessage is the inbound message from the trailer.generate queue.
type TrailerRequestMessage struct {
	JobID       uuid.UUID         `json:"job_id"`
	BookID      string            `json:"book_id"`
	AuthorEmail string            `json:"author_email,omitempty"`
	Request     GenerationRequest `json:"request"`
}

// TrailerStatusMessage is the outbound message published to the trailer.status queue.
type TrailerStatusMessage struct {
	JobID        uuid.UUID   `json:"job_id"`
	BookID       string      `json:"book_id"`
	Status       VideoStatus `json:"video_status"`
	Stage        Stage       `json:"stage"`
	VideoURL     string      `json:"video_url,omitempty"`
	Duration     float64     `json:"duration_seconds,omitempty"`
	ImageCount   int         `json:"image_count,omitempty"`
	ErrorMessage string      `json:"video_error,omitempty"`
}

func NewStatusMessage(job *TrailerJob) TrailerStatusMessage {
	return TrailerStatusMessage{
		JobID:        job.ID,
		BookID:       job.BookID,
		Status:       job.Status,
		Stage:        job.Stage,
		VideoURL:     job.VideoURL,
		Duration:     job.Duration,
		ImageCount:   job.ImageCount,
		ErrorMessage: job.ErrorMessage,
	}
}
