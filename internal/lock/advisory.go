// Package lock serializes table loads across wikietl processes.
//
// On MySQL a named advisory lock (GET_LOCK) is held for the duration of the
// load so two runs of the same job cannot interleave DROP/CREATE/INSERT.
// SQLite serializes writers through its file lock, so there the lock is a
// no-op.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/wikietl/internal/sqlutil"
)

// ErrLockTimeout is returned when another session holds the lock past the
// timeout.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Timeouts in seconds, as understood by GET_LOCK.
const (
	TimeoutDefault  = 10
	TimeoutInfinite = -1
)

// MySQL rejects lock names longer than 64 characters.
const maxNameLen = 64

// AdvisoryLock is a MySQL named lock bound to one session. GET_LOCK is
// session scoped, so the lock pins a connection from the pool until Release.
type AdvisoryLock struct {
	db   *sql.DB
	conn *sql.Conn
	name string
}

// NewAdvisoryLock creates a lock named name. Nothing is acquired yet.
func NewAdvisoryLock(db *sql.DB, name string) *AdvisoryLock {
	return &AdvisoryLock{db: db, name: name}
}

// Name returns the lock name.
func (a *AdvisoryLock) Name() string { return a.name }

// IsHeld reports whether this instance holds the lock.
func (a *AdvisoryLock) IsHeld() bool { return a.conn != nil }

// Acquire waits up to timeoutSeconds for the lock. It returns false when the
// wait ran out and an error when the server could not answer.
//
// GET_LOCK returns 1 on success, 0 on timeout and NULL on a server error.
func (a *AdvisoryLock) Acquire(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.conn != nil {
		return true, nil
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reserve connection for lock %q: %w", a.name, err)
	}

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.name, timeoutSeconds).Scan(&result); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		conn.Close()
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", a.name)
	}

	switch result.Int64 {
	case 1:
		a.conn = conn
		return true, nil
	case 0:
		conn.Close()
		return false, nil
	default:
		conn.Close()
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release frees the lock and returns its connection to the pool. It reports
// whether the server still considered this session the owner.
func (a *AdvisoryLock) Release(ctx context.Context) (bool, error) {
	if a.conn == nil {
		return false, nil
	}
	conn := a.conn
	a.conn = nil
	defer conn.Close()

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.name).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for lock %q (lock did not exist)", a.name)
	}
	return result.Int64 == 1, nil
}

// TableLockName builds the lock name for a destination table:
// "wikietl:table:<table>", with anything outside [A-Za-z0-9_-] replaced by
// an underscore and the result cut to 64 characters.
func TableLockName(table string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, table)

	name := "wikietl:table:" + sanitized
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// WithTableLock runs fn while holding the load lock for table. On MySQL it
// fails with ErrLockTimeout if another session keeps the lock longer than
// timeoutSeconds. On SQLite fn runs directly.
//
// The lock is released even when fn panics.
func WithTableLock(ctx context.Context, db *sql.DB, dialect sqlutil.Dialect, table string, timeoutSeconds int, fn func() error) error {
	if dialect != sqlutil.MySQL {
		return fn()
	}

	l := NewAdvisoryLock(db, TableLockName(table))
	acquired, err := l.Acquire(ctx, timeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another session", ErrLockTimeout, l.Name())
	}

	defer func() {
		// ctx may already be canceled here; the release still has to reach the server.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// A failed release is dropped: the server frees the lock when the
		// session closes.
		_, _ = l.Release(releaseCtx)
	}()

	return fn()
}
