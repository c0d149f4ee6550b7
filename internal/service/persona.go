package service

import (
	"context"
	"fmt"
	"time"

	"github.com/axondocs/axon/internal/domain"
)

// PersonaRepositoryInterface defines the repository interface for persona
// configuration.
type PersonaRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*domain.Persona, error)
	List(ctx context.Context) ([]*domain.Persona, error)
	Create(ctx context.Context, persona *domain.Persona) error
	Update(ctx context.Context, persona *domain.Persona) error
}

// PersonaService reads and manages persona configuration. Personas are
// immutable during a request; edits take effect on the next lookup.
type PersonaService struct {
	repo PersonaRepositoryInterface
}

func NewPersonaService(repo PersonaRepositoryInterface) *PersonaService {
	return &PersonaService{repo: repo}
}

// GetByID returns the persona with the given id.
func (s *PersonaService) GetByID(ctx context.Context, id int) (*domain.Persona, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOrDefault returns the requested persona, or the reserved default
// persona when id is nil.
func (s *PersonaService) GetOrDefault(ctx context.Context, id *int) (*domain.Persona, error) {
	if id == nil {
		return s.repo.GetByID(ctx, domain.DefaultPersonaID)
	}
	return s.repo.GetByID(ctx, *id)
}

func (s *PersonaService) List(ctx context.Context) ([]*domain.Persona, error) {
	return s.repo.List(ctx)
}

// CreateInput holds the fields for a new persona.
type CreatePersonaInput struct {
	Name                string
	Description         string
	PromptIDs           []string
	NumChunks           *int
	LLMRelevanceFilter  bool
	LLMFilterExtraction bool
	RecencyBias         string
	DocumentSetNames    []string
	DatetimeAware       bool
}

func (s *PersonaService) Create(ctx context.Context, input CreatePersonaInput) (*domain.Persona, error) {
	bias := input.RecencyBias
	if bias == "" {
		bias = string(domain.RecencyBiasAuto)
	}
	recencyBias, err := domain.ParseRecencyBias(bias)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	persona := &domain.Persona{
		Name:                input.Name,
		Description:         input.Description,
		PromptIDs:           input.PromptIDs,
		NumChunks:           input.NumChunks,
		LLMRelevanceFilter:  input.LLMRelevanceFilter,
		LLMFilterExtraction: input.LLMFilterExtraction,
		RecencyBias:         recencyBias,
		DocumentSetNames:    input.DocumentSetNames,
		DatetimeAware:       input.DatetimeAware,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := domain.ValidatePersona(persona); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, persona); err != nil {
		return nil, err
	}

	return persona, nil
}

// EnsureDefault verifies the reserved fallback persona exists and is valid.
// A missing or malformed default persona blocks startup.
func (s *PersonaService) EnsureDefault(ctx context.Context) error {
	persona, err := s.repo.GetByID(ctx, domain.DefaultPersonaID)
	if err != nil {
		return fmt.Errorf("default persona (id %d) unavailable: %w", domain.DefaultPersonaID, err)
	}
	if err := domain.ValidatePersona(persona); err != nil {
		return fmt.Errorf("default persona (id %d) invalid: %w", domain.DefaultPersonaID, err)
	}
	return nil
}
