package port

import "context"

// VideoStorage persists a compiled video and returns its public URL.
type VideoStorage interface {
	UploadVideo(ctx context.Context, localPath string, objectKey string) (string, error)
}
