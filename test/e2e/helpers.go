//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/axondocs/axon/internal/api/handlers"
	"github.com/axondocs/axon/internal/domain"
	"github.com/axondocs/axon/internal/repository"
	"github.com/axondocs/axon/internal/server"
	"github.com/axondocs/axon/internal/service"
	"github.com/axondocs/axon/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T           *testing.T
	Ctx         context.Context
	PostgresC   *testutil.PostgresContainer
	Pool        *pgxpool.Pool
	Server      *httptest.Server
	APIKeyToken string
	HTTPClient  *http.Client
}

// fixedEmbedder returns the same query embedding every time, so tests control
// ranking entirely through the chunk embeddings they insert.
type fixedEmbedder struct{}

func (fixedEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return QueryEmbedding(), nil
}

// QueryEmbedding is the vector every query embeds to in E2E tests.
func QueryEmbedding() []float32 {
	vec := make([]float32, 1536)
	vec[0] = 1
	return vec
}

// ChunkEmbedding builds a chunk vector whose cosine similarity to
// QueryEmbedding decreases as offAxis grows.
func ChunkEmbedding(offAxis float32) []float32 {
	vec := make([]float32, 1536)
	vec[0] = 1
	vec[1] = offAxis
	return vec
}

// SetupE2EEnv creates a full E2E test environment with a Postgres container
// and an in-process HTTP server. The LLM filtering stages run disabled; they
// are covered by service-level tests.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	personaRepo := repository.NewPersonaRepository(pool)
	setRepo := repository.NewDocumentSetRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	logRepo := repository.NewRetrievalLogRepository(pool)
	keyRepo := repository.NewAPIKeyRepository(pool)

	authSvc := service.NewAuthService(keyRepo, &service.DefaultUUIDGenerator{})
	personaSvc := service.NewPersonaService(personaRepo)
	setSvc := service.NewDocumentSetService(setRepo)
	scorer := service.NewRecencyScorer(service.DefaultDecayParams())

	retrievalSvc := service.NewRetrievalService(
		fixedEmbedder{}, chunkRepo, setSvc, scorer,
		nil, nil, logRepo,
		service.DefaultRetrievalServiceConfig(),
	)

	router := server.NewRouter(server.RouterConfig{
		AuthValidator:      authSvc,
		ContextHandler:     handlers.NewContextHandler(retrievalSvc, personaSvc),
		PersonaHandler:     handlers.NewPersonaHandler(personaSvc),
		DocumentSetHandler: handlers.NewDocumentSetHandler(setSvc),
		AuthHandler:        handlers.NewAuthHandler(authSvc),
	})

	srv := httptest.NewServer(router)

	token, err := authSvc.CreateAPIKey(ctx, "e2e-test-key")
	if err != nil {
		srv.Close()
		pool.Close()
		pgC.Terminate(ctx)
		t.Fatalf("failed to create bootstrap API key: %v", err)
	}

	env := &E2ETestEnv{
		T:           t,
		Ctx:         ctx,
		PostgresC:   pgC,
		Pool:        pool,
		Server:      srv,
		APIKeyToken: token,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}

	t.Cleanup(func() {
		srv.Close()
		pool.Close()
		_ = pgC.Terminate(ctx)
	})

	return env
}

// Request performs an HTTP request against the test server with the given
// auth token ("" for unauthenticated).
func (env *E2ETestEnv) Request(method, path, token string, body interface{}) (*http.Response, []byte) {
	env.T.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			env.T.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, reqBody)
	if err != nil {
		env.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.HTTPClient.Do(req)
	if err != nil {
		env.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		env.T.Fatalf("failed to read response body: %v", err)
	}

	return resp, respBody
}

// AuthedRequest performs a request with the bootstrap API key.
func (env *E2ETestEnv) AuthedRequest(method, path string, body interface{}) (*http.Response, []byte) {
	env.T.Helper()
	return env.Request(method, path, env.APIKeyToken, body)
}

// DecodeData unmarshals the "data" field of a standard API response.
func (env *E2ETestEnv) DecodeData(body []byte, out interface{}) {
	env.T.Helper()

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		env.T.Fatalf("failed to parse response envelope: %v (body: %s)", err, body)
	}
	if envelope.Error != "" {
		env.T.Fatalf("unexpected API error: %s", envelope.Error)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		env.T.Fatalf("failed to parse response data: %v (data: %s)", err, envelope.Data)
	}
}

// InsertChunk writes a chunk row directly into the store.
func (env *E2ETestEnv) InsertChunk(documentID string, documentSetID *string, content string, sourceType domain.SourceType, updatedAt *time.Time, embedding []float32) {
	env.T.Helper()

	_, err := env.Pool.Exec(env.Ctx,
		`INSERT INTO chunks (id, document_id, document_set_id, content, source_type, updated_at, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), documentID, documentSetID, content,
		string(sourceType), updatedAt, pgvector.NewVector(embedding),
	)
	if err != nil {
		env.T.Fatalf("failed to insert chunk: %v", err)
	}
}

// CreateDocumentSet creates a document set through the API and returns its id.
func (env *E2ETestEnv) CreateDocumentSet(name string) string {
	env.T.Helper()

	resp, body := env.AuthedRequest("POST", "/document-sets", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		env.T.Fatalf("failed to create document set: status %d, body %s", resp.StatusCode, body)
	}

	var set struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	env.DecodeData(body, &set)
	return set.ID
}

// CreatePersona creates a persona through the API and returns its id.
func (env *E2ETestEnv) CreatePersona(req map[string]interface{}) int {
	env.T.Helper()

	resp, body := env.AuthedRequest("POST", "/personas", req)
	if resp.StatusCode != http.StatusCreated {
		env.T.Fatalf("failed to create persona: status %d, body %s", resp.StatusCode, body)
	}

	var persona struct {
		ID int `json:"id"`
	}
	env.DecodeData(body, &persona)
	return persona.ID
}

// CountRetrievalLogs returns the number of retrieval log rows.
func (env *E2ETestEnv) CountRetrievalLogs() int {
	env.T.Helper()

	var count int
	if err := env.Pool.QueryRow(env.Ctx, `SELECT COUNT(*) FROM retrieval_logs`).Scan(&count); err != nil {
		env.T.Fatalf("failed to count retrieval logs: %v", err)
	}
	return count
}

// askResponse mirrors the answer-context response payload.
type askResponse struct {
	Chunks []struct {
		ID                string  `json:"id"`
		DocumentID        string  `json:"document_id"`
		Content           string  `json:"content"`
		SourceType        string  `json:"source_type"`
		UpdatedAt         string  `json:"updated_at"`
		Score             float32 `json:"score"`
		RecencyMultiplier float64 `json:"recency_multiplier"`
		FinalScore        float64 `json:"final_score"`
	} `json:"chunks"`
	SourceTypes   []string `json:"source_types"`
	TimeCutoff    string   `json:"time_cutoff"`
	RecencyBias   string   `json:"recency_bias"`
	DatetimeAware bool     `json:"datetime_aware"`
	CurrentTime   string   `json:"current_time"`
	Degraded      []string `json:"degraded"`
}

func timePtr(ts time.Time) *time.Time { return &ts }

func fmtDocID(i int) string { return fmt.Sprintf("doc-%d", i) }
