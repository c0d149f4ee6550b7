package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCompleter struct {
	response string
	err      error
}

func (c *fixedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func TestFilterExtractor_FullExtraction(t *testing.T) {
	llm := &fixedCompleter{response: `{"source_types": ["jira"], "time_cutoff": "2026-08-24"}`}
	extractor := NewFilterExtractor(llm, FilterExtractorConfig{})

	filter := extractor.Extract(context.Background(), "open jira tickets from last week")

	require.Equal(t, []domain.SourceType{domain.SourceTypeJira}, filter.SourceTypes)
	require.NotNil(t, filter.TimeCutoff)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), *filter.TimeCutoff)
}

func TestFilterExtractor_PartialExtraction(t *testing.T) {
	llm := &fixedCompleter{response: `{"source_types": ["slack"], "time_cutoff": null}`}
	extractor := NewFilterExtractor(llm, FilterExtractorConfig{})

	filter := extractor.Extract(context.Background(), "what did we discuss in slack")

	assert.Equal(t, []domain.SourceType{domain.SourceTypeSlack}, filter.SourceTypes)
	assert.Nil(t, filter.TimeCutoff)
}

func TestFilterExtractor_EmptyOnLLMFailure(t *testing.T) {
	llm := &fixedCompleter{err: errors.New("model unavailable")}
	extractor := NewFilterExtractor(llm, FilterExtractorConfig{})

	filter := extractor.Extract(context.Background(), "anything")
	assert.True(t, filter.IsEmpty())
}

func TestFilterExtractor_EmptyOnMalformedResponse(t *testing.T) {
	llm := &fixedCompleter{response: "I could not determine any filters, sorry!"}
	extractor := NewFilterExtractor(llm, FilterExtractorConfig{})

	filter := extractor.Extract(context.Background(), "anything")
	assert.True(t, filter.IsEmpty())
}

func TestFilterExtractor_HandlesCodeFence(t *testing.T) {
	llm := &fixedCompleter{response: "```json\n{\"source_types\": [\"confluence\"], \"time_cutoff\": null}\n```"}
	extractor := NewFilterExtractor(llm, FilterExtractorConfig{})

	filter := extractor.Extract(context.Background(), "search our confluence wiki")
	assert.Equal(t, []domain.SourceType{domain.SourceTypeConfluence}, filter.SourceTypes)
}

func TestFilterExtractor_DropsUnknownSourceTypes(t *testing.T) {
	llm := &fixedCompleter{response: `{"source_types": ["jira", "carrier_pigeon"], "time_cutoff": null}`}
	extractor := NewFilterExtractor(llm, FilterExtractorConfig{})

	filter := extractor.Extract(context.Background(), "anything")
	assert.Equal(t, []domain.SourceType{domain.SourceTypeJira}, filter.SourceTypes)
}

func TestParseCutoffDate(t *testing.T) {
	cutoff, ok := parseCutoffDate("2026-01-15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), cutoff)

	cutoff, ok = parseCutoffDate("2026-01-15T10:30:00Z")
	require.True(t, ok)
	assert.Equal(t, 10, cutoff.Hour())

	_, ok = parseCutoffDate("null")
	assert.False(t, ok)

	_, ok = parseCutoffDate("two weeks ago")
	assert.False(t, ok)
}
