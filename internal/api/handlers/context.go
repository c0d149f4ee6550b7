package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/axondocs/axon/internal/api"
	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/service"
)

type RetrievalServiceInterface interface {
	AnswerContext(ctx context.Context, input service.AnswerContextInput) (*service.AnswerContext, error)
}

type PersonaLookup interface {
	GetOrDefault(ctx context.Context, id *int) (*domain.Persona, error)
}

// ContextHandler serves answer-context requests: the ranked, filtered chunk
// context for a query under a persona's policy.
type ContextHandler struct {
	retrieval RetrievalServiceInterface
	personas  PersonaLookup
}

func NewContextHandler(retrieval RetrievalServiceInterface, personas PersonaLookup) *ContextHandler {
	return &ContextHandler{retrieval: retrieval, personas: personas}
}

type AnswerContextRequest struct {
	Query       string   `json:"query"`
	PersonaID   *int     `json:"persona_id,omitempty"`
	SourceTypes []string `json:"source_types,omitempty"`
	TimeCutoff  string   `json:"time_cutoff,omitempty"`
}

type ChunkResponse struct {
	ID                string  `json:"id"`
	DocumentID        string  `json:"document_id"`
	Content           string  `json:"content"`
	SourceType        string  `json:"source_type"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
	Score             float32 `json:"score"`
	RecencyMultiplier float64 `json:"recency_multiplier"`
	FinalScore        float64 `json:"final_score"`
}

type AnswerContextResponse struct {
	Chunks        []*ChunkResponse `json:"chunks"`
	SourceTypes   []string         `json:"source_types,omitempty"`
	TimeCutoff    string           `json:"time_cutoff,omitempty"`
	RecencyBias   string           `json:"recency_bias"`
	DatetimeAware bool             `json:"datetime_aware"`
	CurrentTime   string           `json:"current_time,omitempty"`
	Degraded      []string         `json:"degraded,omitempty"`
}

func (h *ContextHandler) AnswerContext(w http.ResponseWriter, r *http.Request) {
	var req AnswerContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	filter, err := parseRequestFilter(req)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	persona, err := h.personas.GetOrDefault(r.Context(), req.PersonaID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.retrieval.AnswerContext(r.Context(), service.AnswerContextInput{
		Query:   req.Query,
		Persona: persona,
		Filter:  filter,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toAnswerContextResponse(result))
}

func parseRequestFilter(req AnswerContextRequest) (domain.RetrievalFilter, error) {
	var filter domain.RetrievalFilter

	for _, raw := range req.SourceTypes {
		sourceType, err := domain.ParseSourceType(raw)
		if err != nil {
			return domain.RetrievalFilter{}, err
		}
		filter.SourceTypes = append(filter.SourceTypes, sourceType)
	}

	if req.TimeCutoff != "" {
		cutoff, err := time.Parse(time.RFC3339, req.TimeCutoff)
		if err != nil {
			cutoff, err = time.Parse("2006-01-02", req.TimeCutoff)
		}
		if err != nil {
			return domain.RetrievalFilter{}, domain.NewDomainError(domain.ErrCodeValidation, "time_cutoff must be RFC3339 or YYYY-MM-DD")
		}
		filter.TimeCutoff = &cutoff
	}

	return filter, nil
}

func toAnswerContextResponse(result *service.AnswerContext) AnswerContextResponse {
	chunks := make([]*ChunkResponse, 0, len(result.Chunks))
	for _, scored := range result.Chunks {
		chunk := &ChunkResponse{
			ID:                scored.Chunk.ID,
			DocumentID:        scored.Chunk.DocumentID,
			Content:           scored.Chunk.Content,
			SourceType:        string(scored.Chunk.SourceType),
			Score:             scored.Chunk.Score,
			RecencyMultiplier: scored.RecencyMultiplier,
			FinalScore:        scored.FinalScore(),
		}
		if scored.Chunk.UpdatedAt != nil {
			chunk.UpdatedAt = scored.Chunk.UpdatedAt.UTC().Format(time.RFC3339)
		}
		chunks = append(chunks, chunk)
	}

	resp := AnswerContextResponse{
		Chunks:        chunks,
		RecencyBias:   string(result.RecencyBias),
		DatetimeAware: result.DatetimeAware,
		Degraded:      result.Degraded,
	}

	for _, sourceType := range result.Filter.SourceTypes {
		resp.SourceTypes = append(resp.SourceTypes, string(sourceType))
	}
	if result.Filter.TimeCutoff != nil {
		resp.TimeCutoff = result.Filter.TimeCutoff.UTC().Format(time.RFC3339)
	}
	if result.DatetimeAware {
		resp.CurrentTime = time.Now().UTC().Format(time.RFC3339)
	}

	return resp
}
