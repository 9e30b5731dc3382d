package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "book-1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "book-1")
	assert.ErrorIs(t, err, entity.ErrGenerationInProgress)

	other, err := l.Acquire(ctx, "book-2")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "book-1")
	require.NoError(t, err)
	again()
}

func TestLocalLocker_SingleWinner(t *testing.T) {
	l := NewLocalLocker()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(context.Background(), "contested"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
