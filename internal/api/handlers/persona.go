package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/axondocs/axon/internal/api"
	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/service"
	"github.com/go-chi/chi/v5"
)

type PersonaServiceInterface interface {
	GetByID(ctx context.Context, id int) (*domain.Persona, error)
	List(ctx context.Context) ([]*domain.Persona, error)
	Create(ctx context.Context, input service.CreatePersonaInput) (*domain.Persona, error)
}

type PersonaHandler struct {
	svc PersonaServiceInterface
}

func NewPersonaHandler(svc PersonaServiceInterface) *PersonaHandler {
	return &PersonaHandler{svc: svc}
}

type CreatePersonaRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	PromptIDs           []string `json:"prompt_ids,omitempty"`
	NumChunks           *int     `json:"num_chunks,omitempty"`
	LLMRelevanceFilter  bool     `json:"llm_relevance_filter,omitempty"`
	LLMFilterExtraction bool     `json:"llm_filter_extraction,omitempty"`
	RecencyBias         string   `json:"recency_bias,omitempty"`
	DocumentSets        []string `json:"document_sets,omitempty"`
	DatetimeAware       bool     `json:"datetime_aware,omitempty"`
}

type PersonaResponse struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	PromptIDs           []string `json:"prompt_ids,omitempty"`
	NumChunks           *int     `json:"num_chunks,omitempty"`
	LLMRelevanceFilter  bool     `json:"llm_relevance_filter"`
	LLMFilterExtraction bool     `json:"llm_filter_extraction"`
	RecencyBias         string   `json:"recency_bias"`
	DocumentSets        []string `json:"document_sets,omitempty"`
	DatetimeAware       bool     `json:"datetime_aware"`
	CreatedAt           string   `json:"created_at,omitempty"`
}

func toPersonaResponse(persona *domain.Persona) *PersonaResponse {
	resp := &PersonaResponse{
		ID:                  persona.ID,
		Name:                persona.Name,
		Description:         persona.Description,
		PromptIDs:           persona.PromptIDs,
		NumChunks:           persona.NumChunks,
		LLMRelevanceFilter:  persona.LLMRelevanceFilter,
		LLMFilterExtraction: persona.LLMFilterExtraction,
		RecencyBias:         string(persona.RecencyBias),
		DocumentSets:        persona.DocumentSetNames,
		DatetimeAware:       persona.DatetimeAware,
	}
	if !persona.CreatedAt.IsZero() {
		resp.CreatedAt = persona.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	persona, err := h.svc.Create(r.Context(), service.CreatePersonaInput{
		Name:                req.Name,
		Description:         req.Description,
		PromptIDs:           req.PromptIDs,
		NumChunks:           req.NumChunks,
		LLMRelevanceFilter:  req.LLMRelevanceFilter,
		LLMFilterExtraction: req.LLMFilterExtraction,
		RecencyBias:         req.RecencyBias,
		DocumentSetNames:    req.DocumentSets,
		DatetimeAware:       req.DatetimeAware,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, toPersonaResponse(persona))
}

func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "persona id must be an integer")
		return
	}

	persona, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toPersonaResponse(persona))
}

func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	personas, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*PersonaResponse, 0, len(personas))
	for _, persona := range personas {
		responses = append(responses, toPersonaResponse(persona))
	}

	api.Success(w, http.StatusOK, map[string]interface{}{"personas": responses})
}
