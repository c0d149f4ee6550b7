package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/axondocs/axon/internal/api/handlers"
	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/service"
	"github.com/stretchr/testify/assert"
)

type stubAuthValidator struct{}

func (v *stubAuthValidator) ValidateAPIKey(ctx context.Context, token string) (string, error) {
	if token == "valid" {
		return "key-1", nil
	}
	return "", domain.ErrInvalidAPIKey
}

type stubRetrieval struct{}

func (s *stubRetrieval) AnswerContext(ctx context.Context, input service.AnswerContextInput) (*service.AnswerContext, error) {
	return &service.AnswerContext{Chunks: []*domain.ScoredChunk{}, RecencyBias: domain.RecencyBiasBaseDecay}, nil
}

type stubPersonas struct{}

func (s *stubPersonas) GetOrDefault(ctx context.Context, id *int) (*domain.Persona, error) {
	return &domain.Persona{ID: domain.DefaultPersonaID, Name: "Default", RecencyBias: domain.RecencyBiasAuto}, nil
}

func (s *stubPersonas) GetByID(ctx context.Context, id int) (*domain.Persona, error) {
	return &domain.Persona{ID: id, Name: "Default", RecencyBias: domain.RecencyBiasAuto}, nil
}

func (s *stubPersonas) List(ctx context.Context) ([]*domain.Persona, error) {
	return []*domain.Persona{}, nil
}

func (s *stubPersonas) Create(ctx context.Context, input service.CreatePersonaInput) (*domain.Persona, error) {
	return &domain.Persona{ID: 1, Name: input.Name, RecencyBias: domain.RecencyBiasAuto}, nil
}

type stubDocumentSets struct{}

func (s *stubDocumentSets) Create(ctx context.Context, name string) (*domain.DocumentSet, error) {
	return &domain.DocumentSet{ID: "set-1", Name: name}, nil
}

func (s *stubDocumentSets) List(ctx context.Context) ([]*domain.DocumentSet, error) {
	return []*domain.DocumentSet{}, nil
}

type stubAuth struct{}

func (s *stubAuth) CreateAPIKey(ctx context.Context, name string) (string, error) {
	return "axn_token", nil
}

func (s *stubAuth) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	return []*domain.APIKey{}, nil
}

func (s *stubAuth) RevokeAPIKey(ctx context.Context, keyID string) error {
	return nil
}

func testRouter() http.Handler {
	personas := &stubPersonas{}
	return NewRouter(RouterConfig{
		AuthValidator:      &stubAuthValidator{},
		ContextHandler:     handlers.NewContextHandler(&stubRetrieval{}, personas),
		PersonaHandler:     handlers.NewPersonaHandler(personas),
		DocumentSetHandler: handlers.NewDocumentSetHandler(&stubDocumentSets{}),
		AuthHandler:        handlers.NewAuthHandler(&stubAuth{}),
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/context"},
		{http.MethodGet, "/personas"},
		{http.MethodPost, "/personas"},
		{http.MethodGet, "/document-sets"},
		{http.MethodGet, "/apikeys"},
	}

	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, strings.NewReader("{}"))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestRouter_AnswerContextWithValidKey(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/context", strings.NewReader(`{"query":"how do refunds work"}`))
	req.Header.Set("Authorization", "Bearer valid")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_InvalidKeyRejected(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/context", strings.NewReader(`{"query":"anything"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_BodyLimitEnforced(t *testing.T) {
	router := testRouter()

	large := strings.Repeat("x", 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/context", strings.NewReader(large))
	req.Header.Set("Authorization", "Bearer valid")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
