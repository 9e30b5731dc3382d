package lock

import (
	"context"
	"sync"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

// LocalLocker serializes generations within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

// Acquire never blocks: a book already held yields ErrGenerationInProgress.
func (l *LocalLocker) Acquire(_ context.Context, bookID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[bookID]; ok {
		return nil, entity.ErrGenerationInProgress
	}
	l.held[bookID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, bookID)
			l.mu.Unlock()
		})
	}, nil
}
