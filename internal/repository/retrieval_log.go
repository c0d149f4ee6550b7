package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/axondocs/axon/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RetrievalLogRepository stores per-query retrieval audit rows.
type RetrievalLogRepository struct {
	pool *pgxpool.Pool
}

func NewRetrievalLogRepository(pool *pgxpool.Pool) *RetrievalLogRepository {
	return &RetrievalLogRepository{pool: pool}
}

func (r *RetrievalLogRepository) CreateRetrievalLog(ctx context.Context, entry service.RetrievalLogEntry) (string, error) {
	filters := map[string]any{}
	filters["query_length"] = len(entry.Query)
	if len(entry.Filter.SourceTypes) > 0 {
		filters["source_types"] = entry.Filter.SourceTypes
	}
	if entry.Filter.TimeCutoff != nil {
		filters["time_cutoff"] = entry.Filter.TimeCutoff
	}

	filtersJSON, _ := json.Marshal(filters)
	degradedJSON, _ := json.Marshal(entry.Degraded)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO retrieval_logs (persona_id, query, filters, recency_bias, chunk_count, degraded, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		entry.PersonaID,
		entry.Query,
		filtersJSON,
		string(entry.RecencyBias),
		entry.ChunkCount,
		degradedJSON,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteOlderThan removes log rows created before the cutoff and returns the
// number of rows removed.
func (r *RetrievalLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM retrieval_logs WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
