package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedStore records idempotency keys for booking submissions that were
// already handled. A replayed confirm with a used key is a no-op.
type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ProcessedStore struct {
	pool rowQuerier
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{pool: pool}
}

// NewProcessedStoreWithDB allows injecting a mock database for testing.
func NewProcessedStoreWithDB(db rowQuerier) *ProcessedStore {
	if db == nil {
		panic("events: db required")
	}
	return &ProcessedStore{pool: db}
}

// AlreadyProcessed checks if this idempotency key was already consumed.
func (s *ProcessedStore) AlreadyProcessed(ctx context.Context, scope, key string) (bool, error) {
	query := `SELECT 1 FROM processed_keys WHERE scope = $1 AND key = $2`
	var exists int
	if err := s.pool.QueryRow(ctx, query, scope, key).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed inserts the key, returning false if it already exists.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, scope, key string) (bool, error) {
	query := `
		INSERT INTO processed_keys (scope, key)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, query, scope, key)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// MarkProcessedTx is MarkProcessed inside an open transaction, used by the
// booking submitter so the key burns atomically with the appointment insert.
func MarkProcessedTx(ctx context.Context, tx pgx.Tx, scope, key string) (bool, error) {
	query := `
		INSERT INTO processed_keys (scope, key)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := tx.Exec(ctx, query, scope, key)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
