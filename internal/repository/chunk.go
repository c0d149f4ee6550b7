package repository

import (
	"context"
	"fmt"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository implements chunk candidate search over the pgvector index.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// Search returns candidate chunks ordered by base relevance score, restricted
// to the given document sets and retrieval filter. Chunks without a document
// timestamp are excluded when a time cutoff is set, since their age is
// unknowable.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, opts service.ChunkSearchOptions) ([]*domain.Chunk, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT id, document_id, content, source_type, updated_at,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM chunks
		WHERE embedding IS NOT NULL`
	args := []interface{}{vec}

	if len(opts.DocumentSetIDs) > 0 {
		args = append(args, opts.DocumentSetIDs)
		query += fmt.Sprintf(" AND document_set_id = ANY($%d)", len(args))
	}

	if len(opts.Filter.SourceTypes) > 0 {
		sourceStrs := make([]string, len(opts.Filter.SourceTypes))
		for i, st := range opts.Filter.SourceTypes {
			sourceStrs[i] = string(st)
		}
		args = append(args, sourceStrs)
		query += fmt.Sprintf(" AND source_type = ANY($%d)", len(args))
	}

	if opts.Filter.TimeCutoff != nil {
		args = append(args, *opts.Filter.TimeCutoff)
		query += fmt.Sprintf(" AND updated_at >= $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]*domain.Chunk, 0)
	for rows.Next() {
		var chunk domain.Chunk
		var sourceType string
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&sourceType, &chunk.UpdatedAt, &chunk.Score,
		); err != nil {
			return nil, err
		}
		chunk.SourceType = domain.SourceType(sourceType)
		chunks = append(chunks, &chunk)
	}

	return chunks, rows.Err()
}
