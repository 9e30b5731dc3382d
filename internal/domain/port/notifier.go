package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, authorEmail string, jobID string, bookID string, errorMsg string) error
}
