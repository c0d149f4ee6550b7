package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/axondocs/axon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByID(ctx context.Context, id string) (*domain.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) List(ctx context.Context) ([]*domain.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	mock.Mock
}

func (m *MockUUIDGenerator) NewString() string {
	args := m.Called()
	return args.String(0)
}

func TestCreateAPIKey_GeneratesPrefixedToken(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	uuidGen := new(MockUUIDGenerator)
	svc := NewAuthService(repo, uuidGen)

	uuidGen.On("NewString").Return("key-id-1")
	repo.On("Create", mock.Anything, mock.MatchedBy(func(key *domain.APIKey) bool {
		return key.ID == "key-id-1" && key.Name == "ci" && key.KeyHash != ""
	})).Return(nil)

	token, err := svc.CreateAPIKey(context.Background(), "ci")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "axn_"))
	assert.Len(t, token, len("axn_")+64)
	assert.True(t, IsValidAPIToken(token))
}

func TestCreateAPIKey_RequiresName(t *testing.T) {
	svc := NewAuthService(new(MockAPIKeyRepository), new(MockUUIDGenerator))

	_, err := svc.CreateAPIKey(context.Background(), "")
	require.Error(t, err)
}

func TestCreateAPIKeyWithToken_RejectsMalformedToken(t *testing.T) {
	svc := NewAuthService(new(MockAPIKeyRepository), new(MockUUIDGenerator))

	err := svc.CreateAPIKeyWithToken(context.Background(), "bootstrap", "not-a-key")
	require.Error(t, err)

	err = svc.CreateAPIKeyWithToken(context.Background(), "bootstrap", "axn_tooshort")
	require.Error(t, err)
}

func TestCreateAPIKeyWithToken_AcceptsValidToken(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	uuidGen := new(MockUUIDGenerator)
	svc := NewAuthService(repo, uuidGen)

	uuidGen.On("NewString").Return("key-id-1")
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	token := "axn_" + strings.Repeat("ab", 32)
	require.NoError(t, svc.CreateAPIKeyWithToken(context.Background(), "bootstrap", token))
}

func TestValidateAPIKey_ReturnsKeyID(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	svc := NewAuthService(repo, new(MockUUIDGenerator))

	token := "axn_" + strings.Repeat("cd", 32)
	repo.On("GetByHash", mock.Anything, hashToken(token)).Return(&domain.APIKey{
		ID:        "key-id-1",
		Name:      "ci",
		KeyHash:   hashToken(token),
		CreatedAt: time.Now().UTC(),
	}, nil)

	keyID, err := svc.ValidateAPIKey(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "key-id-1", keyID)
}

func TestValidateAPIKey_MalformedToken(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	svc := NewAuthService(repo, new(MockUUIDGenerator))

	_, err := svc.ValidateAPIKey(context.Background(), "bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
	repo.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
}

func TestValidateAPIKey_UnknownToken(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	svc := NewAuthService(repo, new(MockUUIDGenerator))

	repo.On("GetByHash", mock.Anything, mock.Anything).Return(nil, domain.ErrAPIKeyNotFound)

	token := "axn_" + strings.Repeat("ef", 32)
	_, err := svc.ValidateAPIKey(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestValidateAPIKey_RevokedToken(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	svc := NewAuthService(repo, new(MockUUIDGenerator))

	revokedAt := time.Now().UTC().Add(-time.Hour)
	token := "axn_" + strings.Repeat("01", 32)
	repo.On("GetByHash", mock.Anything, mock.Anything).Return(&domain.APIKey{
		ID:        "key-id-1",
		KeyHash:   hashToken(token),
		CreatedAt: time.Now().UTC().Add(-24 * time.Hour),
		RevokedAt: &revokedAt,
	}, nil)

	_, err := svc.ValidateAPIKey(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
}

func TestRevokeAPIKey_RequiresID(t *testing.T) {
	svc := NewAuthService(new(MockAPIKeyRepository), new(MockUUIDGenerator))

	err := svc.RevokeAPIKey(context.Background(), "")
	require.Error(t, err)
}

func TestIsValidAPIToken(t *testing.T) {
	assert.True(t, IsValidAPIToken("axn_"+strings.Repeat("a", 64)))
	assert.True(t, IsValidAPIToken("axn_"+strings.Repeat("A", 64)))
	assert.False(t, IsValidAPIToken("axn_"+strings.Repeat("a", 63)))
	assert.False(t, IsValidAPIToken("axn_"+strings.Repeat("z", 64)))
	assert.False(t, IsValidAPIToken("sk_"+strings.Repeat("a", 64)))
	assert.False(t, IsValidAPIToken(""))
}
