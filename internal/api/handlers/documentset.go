package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/axondocs/axon/internal/api"
	"github.com/axondocs/axon/internal/domain"
)

type DocumentSetServiceInterface interface {
	Create(ctx context.Context, name string) (*domain.DocumentSet, error)
	List(ctx context.Context) ([]*domain.DocumentSet, error)
}

type DocumentSetHandler struct {
	svc DocumentSetServiceInterface
}

func NewDocumentSetHandler(svc DocumentSetServiceInterface) *DocumentSetHandler {
	return &DocumentSetHandler{svc: svc}
}

type CreateDocumentSetRequest struct {
	Name string `json:"name"`
}

type DocumentSetResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toDocumentSetResponse(set *domain.DocumentSet) *DocumentSetResponse {
	return &DocumentSetResponse{
		ID:          set.ID,
		Name:        set.Name,
		Description: set.Description,
		CreatedAt:   set.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create registers a document set by name. Creation is idempotent: posting an
// existing name returns the existing set.
func (h *DocumentSetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	set, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, toDocumentSetResponse(set))
}

func (h *DocumentSetHandler) List(w http.ResponseWriter, r *http.Request) {
	sets, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentSetResponse, 0, len(sets))
	for _, set := range sets {
		responses = append(responses, toDocumentSetResponse(set))
	}

	api.Success(w, http.StatusOK, map[string]interface{}{"document_sets": responses})
}
