package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationLog records which one-shot notifications a tenant already
// received so repeated sweeps never mail the same state twice.
type NotificationLog interface {
	// Seen reports whether (tenantID, kind) was already recorded.
	Seen(ctx context.Context, tenantID uuid.UUID, kind string) (bool, error)

	// Mark records (tenantID, kind). Marking an already recorded pair is
	// not an error.
	Mark(ctx context.Context, tenantID uuid.UUID, kind string) error
}

// PGNotificationLog persists sent notifications in the notification_log
// table.
type PGNotificationLog struct {
	pool *pgxpool.Pool
}

// NewPGNotificationLog creates a PostgreSQL-backed NotificationLog.
// Panics if pool is nil to fail fast during initialization.
func NewPGNotificationLog(pool *pgxpool.Pool) *PGNotificationLog {
	if pool == nil {
		panic("notify: pgxpool is required")
	}
	return &PGNotificationLog{pool: pool}
}

// Seen implements NotificationLog.
func (l *PGNotificationLog) Seen(ctx context.Context, tenantID uuid.UUID, kind string) (bool, error) {
	var seen bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notification_log WHERE tenant_id = $1 AND kind = $2)`,
		tenantID, kind,
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("query notification log: %w", err)
	}
	return seen, nil
}

// Mark implements NotificationLog.
func (l *PGNotificationLog) Mark(ctx context.Context, tenantID uuid.UUID, kind string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO notification_log (tenant_id, kind, sent_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tenant_id, kind) DO NOTHING`,
		tenantID, kind, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// MemoryNotificationLog is an in-memory NotificationLog for tests and
// development. Safe for concurrent use.
type MemoryNotificationLog struct {
	mu   sync.RWMutex
	sent map[string]struct{}
}

// NewMemoryNotificationLog creates an empty in-memory log.
func NewMemoryNotificationLog() *MemoryNotificationLog {
	return &MemoryNotificationLog{sent: make(map[string]struct{})}
}

func logKey(tenantID uuid.UUID, kind string) string {
	return tenantID.String() + ":" + kind
}

// Seen implements NotificationLog.
func (l *MemoryNotificationLog) Seen(_ context.Context, tenantID uuid.UUID, kind string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.sent[logKey(tenantID, kind)]
	return ok, nil
}

// Mark implements NotificationLog.
func (l *MemoryNotificationLog) Mark(_ context.Context, tenantID uuid.UUID, kind string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sent[logKey(tenantID, kind)] = struct{}{}
	return nil
}
