package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/telemetry"
)

const filterExtractionSystemPrompt = `You extract structured retrieval filters from a user question about company documents.
Respond with a JSON object and nothing else:
{"source_types": [...], "time_cutoff": "..."}

source_types: subset of ["web", "file", "slack", "jira", "github", "confluence", "notion"] the question explicitly restricts itself to, or [] if none.
time_cutoff: earliest relevant document date as YYYY-MM-DD if the question implies one (for example "last week"), otherwise null.
Only include what the question states or clearly implies. When unsure, leave the field empty.`

// FilterExtractorConfig bounds the extraction call.
type FilterExtractorConfig struct {
	Timeout time.Duration
}

// FilterExtractor derives source-type and time-range restrictions from free
// query text via a single LLM call. It has no authority over document sets.
// Any failure yields an empty filter: no filter is safer than a wrong filter
// that silently drops relevant chunks.
type FilterExtractor struct {
	llm Completer
	cfg FilterExtractorConfig
}

func NewFilterExtractor(llm Completer, cfg FilterExtractorConfig) *FilterExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &FilterExtractor{llm: llm, cfg: cfg}
}

type extractedFilter struct {
	SourceTypes []string `json:"source_types"`
	TimeCutoff  *string  `json:"time_cutoff"`
}

// Extract returns the filter implied by the query. Partial extraction is
// fine; fields the model is unsure about stay unset.
func (e *FilterExtractor) Extract(ctx context.Context, query string) domain.RetrievalFilter {
	ctx, span := telemetry.StartSpan(ctx, "FilterExtractor.Extract", telemetry.SpanAttributes{
		Operation: "filter_extraction",
	})
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	response, err := e.llm.Complete(callCtx, filterExtractionSystemPrompt, query)
	if err != nil {
		log.Printf("filter extraction failed, proceeding unfiltered: %v", err)
		return domain.RetrievalFilter{}
	}

	return parseExtractedFilter(response)
}

func parseExtractedFilter(response string) domain.RetrievalFilter {
	raw := extractJSONObject(response)
	if raw == "" {
		return domain.RetrievalFilter{}
	}

	var extracted extractedFilter
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		log.Printf("filter extraction returned malformed JSON, proceeding unfiltered: %v", err)
		return domain.RetrievalFilter{}
	}

	var filter domain.RetrievalFilter
	for _, value := range extracted.SourceTypes {
		sourceType, err := domain.ParseSourceType(strings.ToLower(strings.TrimSpace(value)))
		if err != nil {
			continue
		}
		filter.SourceTypes = append(filter.SourceTypes, sourceType)
	}

	if extracted.TimeCutoff != nil {
		if cutoff, ok := parseCutoffDate(*extracted.TimeCutoff); ok {
			filter.TimeCutoff = &cutoff
		}
	}

	return filter
}

// extractJSONObject pulls the outermost JSON object out of a model response
// that may wrap it in prose or a code fence.
func extractJSONObject(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return response[start : end+1]
}

func parseCutoffDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "null") {
		return time.Time{}, false
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if cutoff, err := time.Parse(layout, value); err == nil {
			return cutoff.UTC(), true
		}
	}
	return time.Time{}, false
}
