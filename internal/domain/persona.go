package domain

import (
	"fmt"
	"time"
)

// DefaultPersonaID is the reserved identifier for the fallback persona used
// when a caller does not specify one. The seed migration guarantees a row
// with this id exists.
const DefaultPersonaID = 0

// RecencyBias controls how document age affects chunk ranking.
type RecencyBias string

const (
	RecencyBiasFavorRecent RecencyBias = "favor_recent"
	RecencyBiasBaseDecay   RecencyBias = "base_decay"
	RecencyBiasNoDecay     RecencyBias = "no_decay"
	RecencyBiasAuto        RecencyBias = "auto"
)

// ParseRecencyBias validates a recency bias value from configuration.
func ParseRecencyBias(s string) (RecencyBias, error) {
	switch RecencyBias(s) {
	case RecencyBiasFavorRecent, RecencyBiasBaseDecay, RecencyBiasNoDecay, RecencyBiasAuto:
		return RecencyBias(s), nil
	default:
		return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("invalid recency_bias %q", s))
	}
}

// Persona bundles the prompt choice, retrieval budget, and filtering policy
// applied to a single answer request.
type Persona struct {
	ID          int
	Name        string
	Description string
	PromptIDs   []string

	// NumChunks is the retrieval budget. nil means "use the system default";
	// zero disables retrieval entirely.
	NumChunks *int

	LLMRelevanceFilter  bool
	LLMFilterExtraction bool
	RecencyBias         RecencyBias
	DocumentSetNames    []string
	DatetimeAware       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RetrievalDisabled reports whether the persona has retrieval turned off.
func (p *Persona) RetrievalDisabled() bool {
	return p.NumChunks != nil && *p.NumChunks == 0
}

// ChunkBudget returns the effective retrieval budget for the persona.
func (p *Persona) ChunkBudget(systemDefault int) int {
	if p.NumChunks == nil {
		return systemDefault
	}
	return *p.NumChunks
}

// ValidatePersona validates a Persona instance.
func ValidatePersona(p *Persona) error {
	if p == nil {
		return NewDomainError(ErrCodeValidation, "persona cannot be nil")
	}

	if p.ID < 0 {
		return NewDomainError(ErrCodeValidation, "persona id cannot be negative")
	}

	if p.Name == "" {
		return ErrMissingRequiredField
	}

	if p.NumChunks != nil && *p.NumChunks < 0 {
		return NewDomainError(ErrCodeValidation, "num_chunks cannot be negative")
	}

	if _, err := ParseRecencyBias(string(p.RecencyBias)); err != nil {
		return err
	}

	return nil
}
