package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/telemetry"
)

const relevanceSystemPrompt = `You decide whether a reference snippet is useful for answering a user question.
Answer with a single word: yes or no.`

// Completer issues a single LLM judgment call.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RelevanceFilterConfig bounds the concurrent judgment dispatch.
type RelevanceFilterConfig struct {
	Concurrency int
	Timeout     time.Duration

	// MaxChunkTokens caps the chunk content included in a judgment prompt.
	MaxChunkTokens int
}

// DefaultRelevanceFilterConfig returns the default dispatch limits.
func DefaultRelevanceFilterConfig() RelevanceFilterConfig {
	return RelevanceFilterConfig{
		Concurrency:    5,
		Timeout:        10 * time.Second,
		MaxChunkTokens: domain.ChunkTokenSize,
	}
}

// RelevanceFilter asks the language model, per chunk, whether the chunk is
// useful for the query, and drops chunks judged useless. A failed or timed-out
// judgment keeps the chunk: a flaky model degrades to unfiltered retrieval,
// never to an empty result.
type RelevanceFilter struct {
	llm Completer
	cfg RelevanceFilterConfig
}

func NewRelevanceFilter(llm Completer, cfg RelevanceFilterConfig) *RelevanceFilter {
	defaults := DefaultRelevanceFilterConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxChunkTokens <= 0 {
		cfg.MaxChunkTokens = defaults.MaxChunkTokens
	}
	return &RelevanceFilter{llm: llm, cfg: cfg}
}

// Filter judges each chunk concurrently and returns the retained subset in
// the input order. Chunk count never increases and the relative order of
// retained chunks never changes.
func (f *RelevanceFilter) Filter(ctx context.Context, query string, chunks []*domain.ScoredChunk) []*domain.ScoredChunk {
	if len(chunks) == 0 {
		return chunks
	}

	ctx, span := telemetry.StartSpan(ctx, "RelevanceFilter.Filter", telemetry.SpanAttributes{
		Operation: "relevance_filter",
	})
	defer span.End()

	verdicts := make([]bool, len(chunks))
	sem := make(chan struct{}, f.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk *domain.ScoredChunk) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				verdicts[i] = true
				return
			}

			verdicts[i] = f.judge(ctx, query, chunk.Chunk)
		}(i, chunk)
	}
	wg.Wait()

	retained := make([]*domain.ScoredChunk, 0, len(chunks))
	for i, chunk := range chunks {
		chunk.Relevant = verdicts[i]
		if verdicts[i] {
			retained = append(retained, chunk)
		}
	}
	return retained
}

// judge runs one judgment call with its own timeout. Any failure is treated
// as an affirmative verdict (fail-open).
func (f *RelevanceFilter) judge(ctx context.Context, query string, chunk *domain.Chunk) bool {
	callCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	content := TruncateTokens(chunk.Content, f.cfg.MaxChunkTokens)
	prompt := fmt.Sprintf("Question:\n%s\n\nReference snippet:\n%s", query, content)

	response, err := f.llm.Complete(callCtx, relevanceSystemPrompt, prompt)
	if err != nil {
		log.Printf("relevance judgment failed for chunk %s, keeping it: %v", chunk.ID, err)
		return true
	}

	return parseRelevanceVerdict(response)
}

func parseRelevanceVerdict(response string) bool {
	answer := strings.ToLower(strings.TrimSpace(response))
	answer = strings.Trim(answer, ".!\"'")
	return strings.HasPrefix(answer, "yes")
}
