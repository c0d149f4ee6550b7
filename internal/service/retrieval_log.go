package service

import (
	"context"

	"github.com/axondocs/axon/internal/domain"
)

// RetrievalLogEntry captures one answer-context request and its outcome.
type RetrievalLogEntry struct {
	PersonaID   int
	Query       string
	Filter      domain.RetrievalFilter
	RecencyBias domain.RecencyBias
	ChunkCount  int
	Degraded    []string
	DurationMs  int
}

// RetrievalLogRepository persists retrieval audit rows.
type RetrievalLogRepository interface {
	CreateRetrievalLog(ctx context.Context, entry RetrievalLogEntry) (string, error)
}
