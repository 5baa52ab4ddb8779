package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"financas/internal/ledger"
)

// PostgresRepository stores snapshots in Postgres. Intended for deployments
// where several instances share one snapshot database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    user_id TEXT PRIMARY KEY,
    version INTEGER NOT NULL DEFAULT 1,
    state JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

func NewPostgresRepository(ctx context.Context, url string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, userID string) (ledger.Snapshot, bool, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM snapshots WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Snapshot{}, false, nil
	}
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := ledger.DecodePersisted(raw)
	if err != nil {
		return ledger.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *PostgresRepository) Save(ctx context.Context, userID string, snap ledger.Snapshot) error {
	raw, err := ledger.EncodePersisted(snap)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO snapshots (user_id, version, state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			version = excluded.version,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		userID, ledger.SnapshotVersion, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
