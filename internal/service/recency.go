package service

import (
	"math"
	"strings"
	"time"

	"github.com/axondocs/axon/internal/domain"
)

// MaxRecencyMultiplier is the ceiling on any recency multiplier. The
// favor_recent boost is clamped to it.
const MaxRecencyMultiplier = 2.0

// DecayParams are the tunable constants of the recency scoring function.
type DecayParams struct {
	// HalfLife controls how fast the exponential decay falls off with age.
	HalfLife time.Duration

	// Floor is the lowest multiplier base_decay can assign.
	Floor float64

	// RecentBoost is the multiplier favor_recent assigns to brand-new
	// documents, decaying toward 1.0 with age.
	RecentBoost float64
}

// DefaultDecayParams returns the default decay constants.
func DefaultDecayParams() DecayParams {
	return DecayParams{
		HalfLife:    365 * 24 * time.Hour,
		Floor:       0.1,
		RecentBoost: 2.0,
	}
}

// RecencyScorer computes the multiplicative recency factor applied to each
// chunk's base score. For a fixed reference time and document timestamp the
// multiplier is deterministic.
type RecencyScorer struct {
	params DecayParams
}

func NewRecencyScorer(params DecayParams) *RecencyScorer {
	defaults := DefaultDecayParams()
	if params.HalfLife <= 0 {
		params.HalfLife = defaults.HalfLife
	}
	if params.Floor <= 0 {
		params.Floor = defaults.Floor
	}
	if params.RecentBoost < 1 {
		params.RecentBoost = defaults.RecentBoost
	}
	if params.RecentBoost > MaxRecencyMultiplier {
		params.RecentBoost = MaxRecencyMultiplier
	}
	return &RecencyScorer{params: params}
}

// temporal words that signal the query cares about recent documents
var recencyIntentTerms = []string{
	"today", "yesterday", "this week", "last week", "this month",
	"last month", "this year", "past week", "past month", "recent",
	"recently", "latest", "newest", "currently", "right now", "up to date",
}

// ResolveRecencyBias resolves the auto strategy into a concrete one, once per
// query. Queries with explicit temporal language favor recent documents;
// everything else gets the base decay.
func (s *RecencyScorer) ResolveRecencyBias(query string, bias domain.RecencyBias) domain.RecencyBias {
	if bias != domain.RecencyBiasAuto {
		return bias
	}

	lowered := strings.ToLower(query)
	for _, term := range recencyIntentTerms {
		if strings.Contains(lowered, term) {
			return domain.RecencyBiasFavorRecent
		}
	}
	return domain.RecencyBiasBaseDecay
}

// Multiplier returns the recency factor for a document of the given
// timestamp. A nil timestamp is neutral: unknown age is never penalized.
// The bias must already be resolved (never auto).
func (s *RecencyScorer) Multiplier(bias domain.RecencyBias, docTime *time.Time, now time.Time) float64 {
	if docTime == nil || bias == domain.RecencyBiasNoDecay {
		return 1.0
	}

	age := now.Sub(*docTime)
	if age < 0 {
		age = 0
	}
	decay := math.Exp(-age.Seconds() / s.params.HalfLife.Seconds())

	switch bias {
	case domain.RecencyBiasBaseDecay:
		return math.Max(s.params.Floor, decay)
	case domain.RecencyBiasFavorRecent:
		return 1.0 + (s.params.RecentBoost-1.0)*decay
	default:
		return 1.0
	}
}

// Score annotates candidate chunks with their retrieval rank and recency
// multiplier under the resolved bias.
func (s *RecencyScorer) Score(bias domain.RecencyBias, chunks []*domain.Chunk, now time.Time) []*domain.ScoredChunk {
	scored := make([]*domain.ScoredChunk, len(chunks))
	for i, chunk := range chunks {
		scored[i] = &domain.ScoredChunk{
			Chunk:             chunk,
			Rank:              i,
			RecencyMultiplier: s.Multiplier(bias, chunk.UpdatedAt, now),
			Relevant:          true,
		}
	}
	return scored
}
