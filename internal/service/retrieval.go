package service

import (
	"context"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/telemetry"
)

// ChunkSearchOptions restrict a candidate chunk search.
type ChunkSearchOptions struct {
	DocumentSetIDs []string
	Filter         domain.RetrievalFilter
	Limit          int
}

// ChunkStore is the vector index capability: it returns candidate chunks
// ordered by base relevance score.
type ChunkStore interface {
	Search(ctx context.Context, embedding []float32, opts ChunkSearchOptions) ([]*domain.Chunk, error)
}

// EmbeddingServiceInterface defines the interface for query embedding
type EmbeddingServiceInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// DocumentSetResolverInterface resolves persona document-set names to ids.
type DocumentSetResolverInterface interface {
	ResolveNames(ctx context.Context, names []string) ([]string, error)
}

// ChunkRelevanceFilter drops chunks judged useless for the query.
type ChunkRelevanceFilter interface {
	Filter(ctx context.Context, query string, chunks []*domain.ScoredChunk) []*domain.ScoredChunk
}

// QueryFilterExtractor derives retrieval filters from query text.
type QueryFilterExtractor interface {
	Extract(ctx context.Context, query string) domain.RetrievalFilter
}

// RetrievalServiceConfig controls budgets and the process-wide relevance
// filter override.
type RetrievalServiceConfig struct {
	DefaultNumChunks int
	MaxContextTokens int

	// DisableLLMChunkFilter force-disables the relevance filter regardless
	// of per-persona settings.
	DisableLLMChunkFilter bool
}

// DefaultRetrievalServiceConfig returns the default budgets.
func DefaultRetrievalServiceConfig() RetrievalServiceConfig {
	return RetrievalServiceConfig{
		DefaultNumChunks: 10,
		MaxContextTokens: 4096,
	}
}

// AnswerContextInput is a single retrieval request. Filter fields set by the
// caller are authoritative; extraction only fills the gaps.
type AnswerContextInput struct {
	Query   string
	Persona *domain.Persona
	Filter  domain.RetrievalFilter
}

// AnswerContext is the ordered chunk context handed to prompt assembly.
// DatetimeAware mirrors the persona flag so the prompt layer knows to append
// the current time; this subsystem only guarantees the flag is surfaced.
type AnswerContext struct {
	Chunks        []*domain.ScoredChunk
	Filter        domain.RetrievalFilter
	RecencyBias   domain.RecencyBias
	DatetimeAware bool

	// Degraded lists pipeline stages that failed and were absorbed.
	Degraded []string
}

// RetrievalService orchestrates the retrieval pipeline: resolve document
// sets, extract filters, fetch candidates, score, filter, and truncate to
// budget. Only a chunk store failure is fatal; every other stage degrades.
type RetrievalService struct {
	embedding EmbeddingServiceInterface
	chunks    ChunkStore
	docSets   DocumentSetResolverInterface
	scorer    *RecencyScorer
	relevance ChunkRelevanceFilter
	extractor QueryFilterExtractor
	logRepo   RetrievalLogRepository
	cfg       RetrievalServiceConfig
}

func NewRetrievalService(
	embedding EmbeddingServiceInterface,
	chunks ChunkStore,
	docSets DocumentSetResolverInterface,
	scorer *RecencyScorer,
	relevance ChunkRelevanceFilter,
	extractor QueryFilterExtractor,
	logRepo RetrievalLogRepository,
	cfg RetrievalServiceConfig,
) *RetrievalService {
	defaults := DefaultRetrievalServiceConfig()
	if cfg.DefaultNumChunks <= 0 {
		cfg.DefaultNumChunks = defaults.DefaultNumChunks
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = defaults.MaxContextTokens
	}
	return &RetrievalService{
		embedding: embedding,
		chunks:    chunks,
		docSets:   docSets,
		scorer:    scorer,
		relevance: relevance,
		extractor: extractor,
		logRepo:   logRepo,
		cfg:       cfg,
	}
}

// AnswerContext runs the full pipeline for one query under the persona's
// budget and policy.
func (s *RetrievalService) AnswerContext(ctx context.Context, input AnswerContextInput) (*AnswerContext, error) {
	persona := input.Persona
	if persona == nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "persona is required")
	}
	if input.Query == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.AnswerContext", telemetry.SpanAttributes{
		PersonaID: strconv.Itoa(persona.ID),
		Operation: "answer_context",
	})
	defer span.End()

	started := time.Now()

	// Retrieval disabled is a valid terminal state, not an error. The chunk
	// store is never consulted.
	if persona.RetrievalDisabled() {
		return &AnswerContext{
			Chunks:        []*domain.ScoredChunk{},
			Filter:        input.Filter,
			RecencyBias:   persona.RecencyBias,
			DatetimeAware: persona.DatetimeAware,
		}, nil
	}

	result := &AnswerContext{DatetimeAware: persona.DatetimeAware}

	// Document-set resolution and filter extraction are independent and run
	// concurrently; the chunk fetch depends on both.
	setIDs, extracted, degraded := s.prepare(ctx, input)
	result.Degraded = degraded

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter := input.Filter.Merge(extracted)
	result.Filter = filter

	budget := s.chunkBudget(persona)
	candidates, err := s.fetchCandidates(ctx, input.Query, setIDs, filter, budget)
	if err != nil {
		return nil, err
	}

	bias := s.scorer.ResolveRecencyBias(input.Query, persona.RecencyBias)
	result.RecencyBias = bias
	scored := s.scorer.Score(bias, candidates, time.Now().UTC())

	if persona.LLMRelevanceFilter && !s.cfg.DisableLLMChunkFilter && s.relevance != nil {
		scored = s.relevance.Filter(ctx, input.Query, scored)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortScoredChunks(scored)
	if len(scored) > budget {
		scored = scored[:budget]
	}
	result.Chunks = scored

	s.logRetrieval(ctx, input, result, time.Since(started))

	return result, nil
}

// prepare resolves document sets and extracts query filters concurrently.
// Resolution failures degrade to "no restriction from that set" and are
// reported, never fatal.
func (s *RetrievalService) prepare(ctx context.Context, input AnswerContextInput) ([]string, domain.RetrievalFilter, []string) {
	persona := input.Persona

	type resolveResult struct {
		ids []string
		err error
	}
	resolveCh := make(chan resolveResult, 1)
	go func() {
		ids, err := s.docSets.ResolveNames(ctx, persona.DocumentSetNames)
		resolveCh <- resolveResult{ids: ids, err: err}
	}()

	extractCh := make(chan domain.RetrievalFilter, 1)
	go func() {
		if persona.LLMFilterExtraction && s.extractor != nil && filterHasGaps(input.Filter) {
			extractCh <- s.extractor.Extract(ctx, input.Query)
			return
		}
		extractCh <- domain.RetrievalFilter{}
	}()

	var degraded []string

	resolved := <-resolveCh
	if resolved.err != nil {
		log.Printf("document set resolution degraded for persona %d: %v", persona.ID, resolved.err)
		telemetry.CaptureError(ctx, resolved.err)
		degraded = append(degraded, "document_set_resolution")
	}

	extracted := <-extractCh

	return resolved.ids, extracted, degraded
}

func filterHasGaps(filter domain.RetrievalFilter) bool {
	return len(filter.SourceTypes) == 0 || filter.TimeCutoff == nil
}

// fetchCandidates embeds the query and searches the chunk store. This is the
// only fatal stage: there is nothing to rank without candidates.
func (s *RetrievalService) fetchCandidates(ctx context.Context, query string, setIDs []string, filter domain.RetrievalFilter, budget int) ([]*domain.Chunk, error) {
	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrievalFailed, "failed to embed query", err)
	}

	// Over-fetch so downstream filtering still has enough to fill the budget.
	fetchLimit := budget * 2
	if fetchLimit < 20 {
		fetchLimit = 20
	}

	candidates, err := s.chunks.Search(ctx, embedding, ChunkSearchOptions{
		DocumentSetIDs: setIDs,
		Filter:         filter,
		Limit:          fetchLimit,
	})
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrievalFailed, "chunk search failed", err)
	}

	return candidates, nil
}

// chunkBudget is the effective cap on returned chunks: the persona budget,
// bounded by the hard token ceiling at the fixed chunk size.
func (s *RetrievalService) chunkBudget(persona *domain.Persona) int {
	budget := persona.ChunkBudget(s.cfg.DefaultNumChunks)

	tokenCeiling := s.cfg.MaxContextTokens / domain.ChunkTokenSize
	if tokenCeiling < 1 {
		tokenCeiling = 1
	}
	if budget > tokenCeiling {
		budget = tokenCeiling
	}
	return budget
}

// sortScoredChunks orders by final score descending, original retrieval rank
// ascending. Deterministic for fixed inputs regardless of judgment
// concurrency.
func sortScoredChunks(chunks []*domain.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		si, sj := chunks[i].FinalScore(), chunks[j].FinalScore()
		if si != sj {
			return si > sj
		}
		return chunks[i].Rank < chunks[j].Rank
	})
}

// logRetrieval records the request outcome, best effort.
func (s *RetrievalService) logRetrieval(ctx context.Context, input AnswerContextInput, result *AnswerContext, elapsed time.Duration) {
	if s.logRepo == nil {
		return
	}

	entry := RetrievalLogEntry{
		PersonaID:   input.Persona.ID,
		Query:       input.Query,
		Filter:      result.Filter,
		RecencyBias: result.RecencyBias,
		ChunkCount:  len(result.Chunks),
		Degraded:    result.Degraded,
		DurationMs:  int(elapsed.Milliseconds()),
	}

	if _, err := s.logRepo.CreateRetrievalLog(ctx, entry); err != nil {
		log.Printf("failed to record retrieval log: %v", err)
	}
}
