package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/ports"
	"github.com/aretw0/spindle/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Serializes(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	var running, maxRunning atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "run:race", func(ctx context.Context) error {
				n := running.Add(1)
				for {
					m := maxRunning.Load()
					if n <= m || maxRunning.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond) // Simulate IO
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_ = mgr.WithLock(ctx, fmt.Sprintf("run:%d", i), func(context.Context) error { return nil })
	}

	assert.Equal(t, 0, mgr.Active(), "locks leaked after use")
}

func TestManager_ReturnsWorkError(t *testing.T) {
	boom := errors.New("boom")
	err := session.NewManager().WithLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	ttls     []time.Duration
	released int
	fail     error
}

func (l *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{}
	mgr := session.NewManager(session.WithLocker(locker, 0))

	require.NoError(t, mgr.WithLock(context.Background(), "run:r1", func(context.Context) error { return nil }))
	assert.Equal(t, []string{"run:r1"}, locker.keys)
	assert.Equal(t, []time.Duration{session.DefaultTTL}, locker.ttls)
	assert.Equal(t, 1, locker.released)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &fakeLocker{fail: errors.New("redis down")}
	mgr := session.NewManager(session.WithLocker(locker, time.Second))

	called := false
	err := mgr.WithLock(context.Background(), "k", func(context.Context) error { called = true; return nil })
	assert.ErrorContains(t, err, "redis down")
	assert.False(t, called)
	assert.Equal(t, 0, mgr.Active())
}
