package domain

import (
	"fmt"
	"time"
)

// ChunkTokenSize is the fixed token length of a chunk. All context budget
// arithmetic assumes chunks of exactly this size.
const ChunkTokenSize = 512

// SourceType identifies the connector a document was ingested from.
type SourceType string

const (
	SourceTypeWeb        SourceType = "web"
	SourceTypeFile       SourceType = "file"
	SourceTypeSlack      SourceType = "slack"
	SourceTypeJira       SourceType = "jira"
	SourceTypeGitHub     SourceType = "github"
	SourceTypeConfluence SourceType = "confluence"
	SourceTypeNotion     SourceType = "notion"
)

// ParseSourceType validates a source type value.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceTypeWeb, SourceTypeFile, SourceTypeSlack, SourceTypeJira,
		SourceTypeGitHub, SourceTypeConfluence, SourceTypeNotion:
		return SourceType(s), nil
	default:
		return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("invalid source type %q", s))
	}
}

// Chunk is the atomic retrieval result: a fixed-size unit of a document
// produced per query, never persisted by this subsystem.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	SourceType SourceType

	// UpdatedAt is the owning document's timestamp. nil means the age of the
	// document is unknown.
	UpdatedAt *time.Time

	// Score is the embedding-derived base relevance score from the chunk store.
	Score float32
}

// ScoredChunk is a Chunk annotated with its recency multiplier and relevance
// verdict. Rank is the chunk's original retrieval position and breaks ties.
type ScoredChunk struct {
	Chunk             *Chunk
	Rank              int
	RecencyMultiplier float64
	Relevant          bool
}

// FinalScore is the ordering key: base score scaled by the recency multiplier.
func (s *ScoredChunk) FinalScore() float64 {
	return float64(s.Chunk.Score) * s.RecencyMultiplier
}

// RetrievalFilter restricts a chunk search by source type and/or document
// time. Zero-valued fields mean no restriction.
type RetrievalFilter struct {
	SourceTypes []SourceType
	TimeCutoff  *time.Time
}

// IsEmpty reports whether the filter imposes no restriction.
func (f RetrievalFilter) IsEmpty() bool {
	return len(f.SourceTypes) == 0 && f.TimeCutoff == nil
}

// Merge fills the filter's unset fields from other. Fields already set on the
// receiver are never overridden, so caller-supplied filters always win over
// extracted ones.
func (f RetrievalFilter) Merge(other RetrievalFilter) RetrievalFilter {
	merged := f
	if len(merged.SourceTypes) == 0 {
		merged.SourceTypes = other.SourceTypes
	}
	if merged.TimeCutoff == nil {
		merged.TimeCutoff = other.TimeCutoff
	}
	return merged
}
