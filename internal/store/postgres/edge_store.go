package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// EdgeStore implements domain.EdgeStore using PostgreSQL.
type EdgeStore struct {
	pool *pgxpool.Pool
}

// NewEdgeStore creates an EdgeStore backed by the given connection pool.
func NewEdgeStore(pool *pgxpool.Pool) *EdgeStore {
	return &EdgeStore{pool: pool}
}

const edgeSelectCols = `id, tag, yes_exchange, no_exchange, edge, ts`

// Insert persists one edge record.
func (s *EdgeStore) Insert(ctx context.Context, rec domain.EdgeRecord) error {
	const query = `
		INSERT INTO edges (id, tag, yes_exchange, no_exchange, edge, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Tag, string(rec.YesExchange), string(rec.NoExchange), rec.Edge, rec.TS,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert edge %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recent edge records, newest first.
func (s *EdgeStore) ListRecent(ctx context.Context, limit int) ([]domain.EdgeRecord, error) {
	const query = `SELECT ` + edgeSelectCols + `
		FROM edges ORDER BY ts DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent edges: %w", err)
	}
	defer rows.Close()

	return scanEdgeRows(rows)
}

func scanEdgeRows(rows pgx.Rows) ([]domain.EdgeRecord, error) {
	var recs []domain.EdgeRecord
	for rows.Next() {
		var rec domain.EdgeRecord
		var yesEx, noEx string
		if err := rows.Scan(
			&rec.ID, &rec.Tag, &yesEx, &noEx, &rec.Edge, &rec.TS,
		); err != nil {
			return nil, err
		}
		rec.YesExchange = domain.Exchange(yesEx)
		rec.NoExchange = domain.Exchange(noEx)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
