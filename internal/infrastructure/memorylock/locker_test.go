package memorylock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magelan-app/magelan/internal/infrastructure/memorylock"
)

func TestLock_SerializesSameKey(t *testing.T) {
	locker := memorylock.New()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "key")
			require.NoError(t, err)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestLock_DistinctKeysDoNotBlock(t *testing.T) {
	locker := memorylock.New()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLock_CancelledContext(t *testing.T) {
	locker := memorylock.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locker.Lock(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)
}
