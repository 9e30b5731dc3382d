package port

import "context"

// BookLocker serializes generations of the same book.
type BookLocker interface {
	Acquire(ctx context.Context, bookID string) (release func(), err error)
}
