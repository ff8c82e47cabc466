package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGEventStore persists the trail in the subscription_events table.
type PGEventStore struct {
	pool *pgxpool.Pool
}

// NewPGEventStore creates a store over a pgx pool.
// Panics on a nil pool to fail fast during initialization.
func NewPGEventStore(pool *pgxpool.Pool) *PGEventStore {
	if pool == nil {
		panic("audit: pgxpool is required")
	}
	return &PGEventStore{pool: pool}
}

// InsertBatch implements Store. The batch goes through one pipelined
// round-trip and one implicit transaction, so either every entry lands or
// none do.
func (s *PGEventStore) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO subscription_events (tenant_id, name, occurred_at, data)
			 VALUES ($1, $2, $3, $4)`,
			e.TenantID, e.Name, e.OccurredAt, e.Data,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert subscription event: %w", err)
		}
	}
	return nil
}

// maxListLimit caps history reads; the dashboard pages well below this.
const maxListLimit = 200

// List returns a clinic's recent events, newest first. A non-positive or
// oversized limit collapses to the cap.
func (s *PGEventStore) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, occurred_at, data
		 FROM subscription_events
		 WHERE tenant_id = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscription events: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.OccurredAt, &e.Data); err != nil {
			return nil, fmt.Errorf("scan subscription event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription events: %w", err)
	}
	return out, nil
}
