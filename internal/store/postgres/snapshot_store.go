package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const snapshotSelectCols = `id, tag, exchange, yes_price, no_price, ts`

// Insert persists one snapshot record.
func (s *SnapshotStore) Insert(ctx context.Context, rec domain.SnapshotRecord) error {
	const query = `
		INSERT INTO snapshots (id, tag, exchange, yes_price, no_price, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Tag, string(rec.Exchange), rec.YesPrice, rec.NoPrice, rec.TS,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert snapshot %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recent snapshot records, newest first.
func (s *SnapshotStore) ListRecent(ctx context.Context, limit int) ([]domain.SnapshotRecord, error) {
	const query = `SELECT ` + snapshotSelectCols + `
		FROM snapshots ORDER BY ts DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshotRows(rows)
}

func scanSnapshotRows(rows pgx.Rows) ([]domain.SnapshotRecord, error) {
	var recs []domain.SnapshotRecord
	for rows.Next() {
		var rec domain.SnapshotRecord
		var exchange string
		if err := rows.Scan(
			&rec.ID, &rec.Tag, &exchange, &rec.YesPrice, &rec.NoPrice, &rec.TS,
		); err != nil {
			return nil, err
		}
		rec.Exchange = domain.Exchange(exchange)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
