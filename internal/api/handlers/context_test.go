package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) AnswerContext(ctx context.Context, input service.AnswerContextInput) (*service.AnswerContext, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnswerContext), args.Error(1)
}

type MockPersonaLookup struct {
	mock.Mock
}

func (m *MockPersonaLookup) GetOrDefault(ctx context.Context, id *int) (*domain.Persona, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Persona), args.Error(1)
}

func postJSON(t *testing.T, path string, body interface{}) *http.Request {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
}

func TestContextHandler_AnswerContext_Success(t *testing.T) {
	mockRetrieval := new(MockRetrievalService)
	mockPersonas := new(MockPersonaLookup)
	handler := NewContextHandler(mockRetrieval, mockPersonas)

	persona := &domain.Persona{ID: 0, Name: "Default", RecencyBias: domain.RecencyBiasAuto}
	updatedAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	result := &service.AnswerContext{
		Chunks: []*domain.ScoredChunk{
			{
				Chunk: &domain.Chunk{
					ID:         "chunk-1",
					DocumentID: "doc-1",
					Content:    "Refunds are processed within 5 days.",
					SourceType: domain.SourceTypeWeb,
					UpdatedAt:  &updatedAt,
					Score:      0.91,
				},
				Rank:              0,
				RecencyMultiplier: 1.0,
				Relevant:          true,
			},
		},
		RecencyBias: domain.RecencyBiasBaseDecay,
	}

	mockPersonas.On("GetOrDefault", mock.Anything, (*int)(nil)).Return(persona, nil)
	mockRetrieval.On("AnswerContext", mock.Anything, mock.MatchedBy(func(input service.AnswerContextInput) bool {
		return input.Query == "how do refunds work" && input.Persona == persona
	})).Return(result, nil)

	req := postJSON(t, "/context", AnswerContextRequest{Query: "how do refunds work"})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	chunks := data["chunks"].([]interface{})
	require.Len(t, chunks, 1)
	first := chunks[0].(map[string]interface{})
	assert.Equal(t, "chunk-1", first["id"])
	assert.Equal(t, "base_decay", data["recency_bias"])
	mockRetrieval.AssertExpectations(t)
}

func TestContextHandler_AnswerContext_ExplicitPersonaAndFilters(t *testing.T) {
	mockRetrieval := new(MockRetrievalService)
	mockPersonas := new(MockPersonaLookup)
	handler := NewContextHandler(mockRetrieval, mockPersonas)

	personaID := 3
	persona := &domain.Persona{ID: 3, Name: "Support", RecencyBias: domain.RecencyBiasNoDecay}
	mockPersonas.On("GetOrDefault", mock.Anything, &personaID).Return(persona, nil)
	mockRetrieval.On("AnswerContext", mock.Anything, mock.MatchedBy(func(input service.AnswerContextInput) bool {
		return len(input.Filter.SourceTypes) == 1 &&
			input.Filter.SourceTypes[0] == domain.SourceTypeSlack &&
			input.Filter.TimeCutoff != nil
	})).Return(&service.AnswerContext{Chunks: []*domain.ScoredChunk{}, RecencyBias: domain.RecencyBiasNoDecay}, nil)

	req := postJSON(t, "/context", AnswerContextRequest{
		Query:       "deployment discussion",
		PersonaID:   &personaID,
		SourceTypes: []string{"slack"},
		TimeCutoff:  "2026-08-01",
	})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRetrieval.AssertExpectations(t)
}

func TestContextHandler_AnswerContext_MissingQuery(t *testing.T) {
	handler := NewContextHandler(new(MockRetrievalService), new(MockPersonaLookup))

	req := postJSON(t, "/context", AnswerContextRequest{})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContextHandler_AnswerContext_InvalidSourceType(t *testing.T) {
	handler := NewContextHandler(new(MockRetrievalService), new(MockPersonaLookup))

	req := postJSON(t, "/context", AnswerContextRequest{
		Query:       "anything",
		SourceTypes: []string{"telegraph"},
	})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContextHandler_AnswerContext_InvalidTimeCutoff(t *testing.T) {
	handler := NewContextHandler(new(MockRetrievalService), new(MockPersonaLookup))

	req := postJSON(t, "/context", AnswerContextRequest{
		Query:      "anything",
		TimeCutoff: "last tuesday",
	})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContextHandler_AnswerContext_UnknownPersona(t *testing.T) {
	mockRetrieval := new(MockRetrievalService)
	mockPersonas := new(MockPersonaLookup)
	handler := NewContextHandler(mockRetrieval, mockPersonas)

	personaID := 99
	mockPersonas.On("GetOrDefault", mock.Anything, &personaID).Return(nil, domain.ErrPersonaNotFound)

	req := postJSON(t, "/context", AnswerContextRequest{Query: "anything", PersonaID: &personaID})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockRetrieval.AssertNotCalled(t, "AnswerContext", mock.Anything, mock.Anything)
}

func TestContextHandler_AnswerContext_RetrievalFailure(t *testing.T) {
	mockRetrieval := new(MockRetrievalService)
	mockPersonas := new(MockPersonaLookup)
	handler := NewContextHandler(mockRetrieval, mockPersonas)

	mockPersonas.On("GetOrDefault", mock.Anything, (*int)(nil)).Return(&domain.Persona{ID: 0, Name: "Default", RecencyBias: domain.RecencyBiasAuto}, nil)
	mockRetrieval.On("AnswerContext", mock.Anything, mock.Anything).Return(nil, domain.ErrChunkStoreUnavailable)

	req := postJSON(t, "/context", AnswerContextRequest{Query: "anything"})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestContextHandler_AnswerContext_DatetimeAwareIncludesCurrentTime(t *testing.T) {
	mockRetrieval := new(MockRetrievalService)
	mockPersonas := new(MockPersonaLookup)
	handler := NewContextHandler(mockRetrieval, mockPersonas)

	mockPersonas.On("GetOrDefault", mock.Anything, (*int)(nil)).Return(&domain.Persona{ID: 0, Name: "Default", RecencyBias: domain.RecencyBiasAuto, DatetimeAware: true}, nil)
	mockRetrieval.On("AnswerContext", mock.Anything, mock.Anything).Return(&service.AnswerContext{
		Chunks:        []*domain.ScoredChunk{},
		RecencyBias:   domain.RecencyBiasBaseDecay,
		DatetimeAware: true,
	}, nil)

	req := postJSON(t, "/context", AnswerContextRequest{Query: "anything"})
	w := httptest.NewRecorder()

	handler.AnswerContext(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["datetime_aware"])
	assert.NotEmpty(t, data["current_time"])
}
