package lock

import "context"

// DistributedLockManager serializes work across gohire instances by integer lock id.
type DistributedLockManager interface {
	// Acquire blocks until the lock is held or ctx is done.
	Acquire(ctx context.Context, lockID int) error

	// TryAcquire takes the lock only if it is free right now.
	TryAcquire(ctx context.Context, lockID int) (bool, error)

	Release(ctx context.Context, lockID int) error
}
