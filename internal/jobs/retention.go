package jobs

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetrievalLogPruner deletes retrieval log rows older than a cutoff.
type RetrievalLogPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker prunes aged retrieval logs on each poll cycle.
type RetentionWorker struct {
	pruner    RetrievalLogPruner
	retention time.Duration
}

func NewRetentionWorker(pruner RetrievalLogPruner, retention time.Duration) *RetentionWorker {
	return &RetentionWorker{
		pruner:    pruner,
		retention: retention,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *RetentionWorker) ProcessJobs(ctx context.Context) error {
	if w.retention <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	deleted, err := w.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune retrieval logs: %w", err)
	}

	if deleted > 0 {
		log.Printf("Pruned %d retrieval logs older than %s", deleted, cutoff.Format(time.RFC3339))
	}

	return nil
}
