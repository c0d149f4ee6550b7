package repository

import (
	"context"
	"errors"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentSetRepository persists the document-set catalog. Creation must be
// idempotent under concurrent resolution of the same name: the UNIQUE
// constraint on name guarantees at most one row, and a conflicting insert
// falls through to re-reading the winner.
type DocumentSetRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentSetRepository(pool *pgxpool.Pool) *DocumentSetRepository {
	return &DocumentSetRepository{pool: pool}
}

func (r *DocumentSetRepository) GetByName(ctx context.Context, name string) (*domain.DocumentSet, error) {
	var set domain.DocumentSet
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM document_sets WHERE name = $1`,
		name,
	).Scan(&set.ID, &set.Name, &set.Description, &set.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentSetNotFound
		}
		return nil, err
	}
	return &set, nil
}

// CreateIfAbsent inserts an empty document set with the given name unless one
// already exists, then returns the surviving row. Safe to call concurrently
// for the same name; the loser of the insert race reads the winner's row.
func (r *DocumentSetRepository) CreateIfAbsent(ctx context.Context, name string) (*domain.DocumentSet, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO document_sets (id, name, description, created_at)
		 VALUES ($1, $2, '', $3)
		 ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), name, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	return r.GetByName(ctx, name)
}

func (r *DocumentSetRepository) List(ctx context.Context) ([]*domain.DocumentSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM document_sets ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*domain.DocumentSet
	for rows.Next() {
		var set domain.DocumentSet
		if err := rows.Scan(&set.ID, &set.Name, &set.Description, &set.CreatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, &set)
	}
	return sets, rows.Err()
}
