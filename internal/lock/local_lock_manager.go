package lock

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// LocalLockManager is an in-process lock for single-instance deployments and the memory driver.
type LocalLockManager struct {
	mu    sync.Mutex
	locks map[int]*semaphore.Weighted
}

func NewLocalLockManager() *LocalLockManager {
	return &LocalLockManager{locks: make(map[int]*semaphore.Weighted)}
}

func (l *LocalLockManager) Acquire(ctx context.Context, lockID int) error {
	if err := l.get(lockID).Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

func (l *LocalLockManager) TryAcquire(_ context.Context, lockID int) (bool, error) {
	return l.get(lockID).TryAcquire(1), nil
}

func (l *LocalLockManager) Release(_ context.Context, lockID int) (err error) {
	defer func() {
		// semaphore panics on releasing more than held
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to release lock: lock %d is not held", lockID)
		}
	}()
	l.get(lockID).Release(1)
	return nil
}

func (l *LocalLockManager) get(lockID int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.locks[lockID]
	if !ok {
		s = semaphore.NewWeighted(1)
		l.locks[lockID] = s
	}
	return s
}
