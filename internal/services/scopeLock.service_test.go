package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lessonfolders/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScopeKeys(t *testing.T) {
	assert.Equal(t,
		[]string{"class:a", "user:b"},
		normalizeScopeKeys([]string{"user:b", "", "class:a", "user:b"}),
	)
}

func TestScopeLockService_SerializesSameScope(t *testing.T) {
	locks := NewScopeLockService()
	ctx := context.Background()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(ctx, "user:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			current := atomic.AddInt32(&inside, 1)
			for {
				seen := atomic.LoadInt32(&maxInside)
				if current <= seen || atomic.CompareAndSwapInt32(&maxInside, seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locks.held())
}

func TestScopeLockService_DifferentScopesRunInParallel(t *testing.T) {
	locks := NewScopeLockService()
	ctx := context.Background()

	unlockA, err := locks.Lock(ctx, "user:a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := locks.Lock(ctx, "user:b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different scope blocked")
	}
}

func TestScopeLockService_ContextCancelReleasesPartialAcquire(t *testing.T) {
	locks := NewScopeLockService()

	unlock, err := locks.Lock(context.Background(), "user:b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Lock(ctx, "user:a", "user:b")
	assert.ErrorIs(t, err, types.ErrTransientStore)

	unlockA, err := locks.Lock(context.Background(), "user:a")
	require.NoError(t, err)
	unlockA()

	unlock()
	unlock()
	assert.Equal(t, 0, locks.held())
}

func TestScopeLockService_MultiScopeNoDeadlock(t *testing.T) {
	locks := NewScopeLockService()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(ctx, "user:a", "class:b")
			if err == nil {
				unlock()
			}
		}()
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(ctx, "class:b", "user:a")
			if err == nil {
				unlock()
			}
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("multi-scope locking deadlocked")
	}
	assert.Equal(t, 0, locks.held())
}
