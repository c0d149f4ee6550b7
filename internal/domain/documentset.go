package domain

import "time"

// DocumentSet is a named, administrator-managed grouping of ingested sources
// used to scope retrieval. Sets referenced by a persona before they exist are
// created lazily as empty sets.
type DocumentSet struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// ValidateDocumentSet validates a DocumentSet instance.
func ValidateDocumentSet(d *DocumentSet) error {
	if d == nil {
		return NewDomainError(ErrCodeValidation, "document set cannot be nil")
	}

	if d.ID == "" {
		return NewDomainError(ErrCodeValidation, "document set ID is required")
	}

	if d.Name == "" {
		return ErrMissingRequiredField
	}

	return nil
}
