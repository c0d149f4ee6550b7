package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPersonaService struct {
	mock.Mock
}

func (m *MockPersonaService) GetByID(ctx context.Context, id int) (*domain.Persona, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Persona), args.Error(1)
}

func (m *MockPersonaService) List(ctx context.Context) ([]*domain.Persona, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Persona), args.Error(1)
}

func (m *MockPersonaService) Create(ctx context.Context, input service.CreatePersonaInput) (*domain.Persona, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Persona), args.Error(1)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestPersonaHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockPersonaService)
	handler := NewPersonaHandler(mockSvc)

	numChunks := 5
	created := &domain.Persona{
		ID:          1,
		Name:        "Support Assistant",
		NumChunks:   &numChunks,
		RecencyBias: domain.RecencyBiasFavorRecent,
	}
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input service.CreatePersonaInput) bool {
		return input.Name == "Support Assistant" && *input.NumChunks == 5
	})).Return(created, nil)

	req := postJSON(t, "/personas", CreatePersonaRequest{
		Name:        "Support Assistant",
		NumChunks:   &numChunks,
		RecencyBias: "favor_recent",
	})
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["id"])
	assert.Equal(t, "favor_recent", data["recency_bias"])
}

func TestPersonaHandler_Create_MissingName(t *testing.T) {
	handler := NewPersonaHandler(new(MockPersonaService))

	req := postJSON(t, "/personas", CreatePersonaRequest{})
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersonaHandler_Create_InvalidBody(t *testing.T) {
	handler := NewPersonaHandler(new(MockPersonaService))

	req := httptest.NewRequest(http.MethodPost, "/personas", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersonaHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockPersonaService)
	handler := NewPersonaHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, 2).Return(&domain.Persona{ID: 2, Name: "Legal", RecencyBias: domain.RecencyBiasNoDecay}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/personas/2", nil), "id", "2")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPersonaHandler_Get_NonNumericID(t *testing.T) {
	handler := NewPersonaHandler(new(MockPersonaService))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/personas/abc", nil), "id", "abc")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersonaHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockPersonaService)
	handler := NewPersonaHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, 99).Return(nil, domain.ErrPersonaNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/personas/99", nil), "id", "99")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPersonaHandler_List_Success(t *testing.T) {
	mockSvc := new(MockPersonaService)
	handler := NewPersonaHandler(mockSvc)

	mockSvc.On("List", mock.Anything).Return([]*domain.Persona{
		{ID: 0, Name: "Default", RecencyBias: domain.RecencyBiasAuto},
		{ID: 1, Name: "Support", RecencyBias: domain.RecencyBiasFavorRecent},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	personas := data["personas"].([]interface{})
	assert.Len(t, personas, 2)
}
