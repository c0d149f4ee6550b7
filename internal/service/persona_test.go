package service

import (
	"context"
	"testing"

	"github.com/axondocs/axon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPersonaRepository is a mock implementation of PersonaRepositoryInterface
type MockPersonaRepository struct {
	mock.Mock
}

func (m *MockPersonaRepository) GetByID(ctx context.Context, id int) (*domain.Persona, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Persona), args.Error(1)
}

func (m *MockPersonaRepository) List(ctx context.Context) ([]*domain.Persona, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Persona), args.Error(1)
}

func (m *MockPersonaRepository) Create(ctx context.Context, persona *domain.Persona) error {
	args := m.Called(ctx, persona)
	return args.Error(0)
}

func (m *MockPersonaRepository) Update(ctx context.Context, persona *domain.Persona) error {
	args := m.Called(ctx, persona)
	return args.Error(0)
}

func TestGetOrDefault_NilFallsBackToDefaultPersona(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	fallback := &domain.Persona{ID: domain.DefaultPersonaID, Name: "Default", RecencyBias: domain.RecencyBiasAuto}
	repo.On("GetByID", mock.Anything, domain.DefaultPersonaID).Return(fallback, nil)

	persona, err := svc.GetOrDefault(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPersonaID, persona.ID)
}

func TestGetOrDefault_ExplicitID(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	repo.On("GetByID", mock.Anything, 7).Return(&domain.Persona{ID: 7, Name: "Legal", RecencyBias: domain.RecencyBiasNoDecay}, nil)

	persona, err := svc.GetOrDefault(context.Background(), intPtr(7))

	require.NoError(t, err)
	assert.Equal(t, 7, persona.ID)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, domain.DefaultPersonaID)
}

func TestGetOrDefault_UnknownPersona(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	repo.On("GetByID", mock.Anything, 99).Return(nil, domain.ErrPersonaNotFound)

	_, err := svc.GetOrDefault(context.Background(), intPtr(99))
	assert.ErrorIs(t, err, domain.ErrPersonaNotFound)
}

func TestPersonaCreate_DefaultsRecencyBiasToAuto(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	persona, err := svc.Create(context.Background(), CreatePersonaInput{Name: "Sales Assistant"})

	require.NoError(t, err)
	assert.Equal(t, domain.RecencyBiasAuto, persona.RecencyBias)
}

func TestPersonaCreate_RejectsInvalidRecencyBias(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	_, err := svc.Create(context.Background(), CreatePersonaInput{
		Name:        "Broken",
		RecencyBias: "extra_spicy",
	})

	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPersonaCreate_RejectsNegativeNumChunks(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	_, err := svc.Create(context.Background(), CreatePersonaInput{
		Name:      "Broken",
		NumChunks: intPtr(-1),
	})

	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsureDefault_OK(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	repo.On("GetByID", mock.Anything, domain.DefaultPersonaID).Return(&domain.Persona{
		ID:          domain.DefaultPersonaID,
		Name:        "Default",
		RecencyBias: domain.RecencyBiasAuto,
	}, nil)

	assert.NoError(t, svc.EnsureDefault(context.Background()))
}

func TestEnsureDefault_MissingDefaultFails(t *testing.T) {
	repo := new(MockPersonaRepository)
	svc := NewPersonaService(repo)

	repo.On("GetByID", mock.Anything, domain.DefaultPersonaID).Return(nil, domain.ErrPersonaNotFound)

	err := svc.EnsureDefault(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersonaNotFound)
}
