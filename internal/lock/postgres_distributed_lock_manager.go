package lock

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// PostgresDistributedLockManager uses session-level advisory locks.
// Each held lock pins its own connection, since advisory locks belong to the session
// that took them and a pooled *sql.DB may hand the unlock to another session.
type PostgresDistributedLockManager struct {
	db    *sql.DB
	mu    sync.Mutex
	conns map[int]*sql.Conn
}

func NewPostgresDistributedLockManager(db *sql.DB) *PostgresDistributedLockManager {
	return &PostgresDistributedLockManager{
		db:    db,
		conns: make(map[int]*sql.Conn),
	}
}

func (l *PostgresDistributedLockManager) Acquire(ctx context.Context, lockID int) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err = conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		conn.Close()
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	l.hold(lockID, conn)
	return nil
}

func (l *PostgresDistributedLockManager) TryAcquire(ctx context.Context, lockID int) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	var acquired bool
	if err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.hold(lockID, conn)
	return true, nil
}

func (l *PostgresDistributedLockManager) Release(ctx context.Context, lockID int) error {
	l.mu.Lock()
	conn, ok := l.conns[lockID]
	delete(l.conns, lockID)
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("failed to release lock: lock %d is not held", lockID)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func (l *PostgresDistributedLockManager) hold(lockID int, conn *sql.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[lockID] = conn
}
