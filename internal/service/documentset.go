package service

import (
	"context"
	"fmt"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/telemetry"
)

// DocumentSetRepositoryInterface defines the repository interface for
// document-set catalog access.
type DocumentSetRepositoryInterface interface {
	GetByName(ctx context.Context, name string) (*domain.DocumentSet, error)
	CreateIfAbsent(ctx context.Context, name string) (*domain.DocumentSet, error)
	List(ctx context.Context) ([]*domain.DocumentSet, error)
}

// DocumentSetService resolves persona document-set names to identifiers,
// creating empty sets for names that do not exist yet.
type DocumentSetService struct {
	repo DocumentSetRepositoryInterface
}

func NewDocumentSetService(repo DocumentSetRepositoryInterface) *DocumentSetService {
	return &DocumentSetService{repo: repo}
}

// ResolveNames maps document-set names to identifiers. Unknown names are
// created as empty sets. On a creation failure the ids resolved so far are
// returned alongside the error so the caller can degrade to a wider search
// instead of failing the whole query.
func (s *DocumentSetService) ResolveNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "DocumentSetService.ResolveNames", telemetry.SpanAttributes{
		Operation: "resolve_document_sets",
	})
	defer span.End()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		set, err := s.repo.CreateIfAbsent(ctx, name)
		if err != nil {
			return ids, fmt.Errorf("failed to resolve document set %q: %w", name, err)
		}
		ids = append(ids, set.ID)
	}

	return ids, nil
}

func (s *DocumentSetService) List(ctx context.Context) ([]*domain.DocumentSet, error) {
	return s.repo.List(ctx)
}

// Create explicitly creates a document set by name, for the admin surface.
func (s *DocumentSetService) Create(ctx context.Context, name string) (*domain.DocumentSet, error) {
	if name == "" {
		return nil, domain.ErrMissingRequiredField
	}
	return s.repo.CreateIfAbsent(ctx, name)
}
