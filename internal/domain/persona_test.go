package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecencyBias_Valid(t *testing.T) {
	for _, value := range []string{"favor_recent", "base_decay", "no_decay", "auto"} {
		bias, err := ParseRecencyBias(value)
		require.NoError(t, err)
		assert.Equal(t, RecencyBias(value), bias)
	}
}

func TestParseRecencyBias_Invalid(t *testing.T) {
	_, err := ParseRecencyBias("most_recent")
	require.Error(t, err)

	domainErr, ok := err.(*DomainError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, domainErr.Code)
}

func TestValidatePersona(t *testing.T) {
	persona := &Persona{
		ID:          1,
		Name:        "Support",
		RecencyBias: RecencyBiasBaseDecay,
	}
	assert.NoError(t, ValidatePersona(persona))
}

func TestValidatePersona_MissingName(t *testing.T) {
	persona := &Persona{ID: 1, RecencyBias: RecencyBiasNoDecay}
	assert.ErrorIs(t, ValidatePersona(persona), ErrMissingRequiredField)
}

func TestValidatePersona_BadRecencyBias(t *testing.T) {
	persona := &Persona{ID: 1, Name: "Support", RecencyBias: "newest_first"}
	assert.Error(t, ValidatePersona(persona))
}

func TestValidatePersona_NegativeNumChunks(t *testing.T) {
	n := -1
	persona := &Persona{ID: 1, Name: "Support", NumChunks: &n, RecencyBias: RecencyBiasAuto}
	assert.Error(t, ValidatePersona(persona))
}

func TestPersona_ChunkBudget(t *testing.T) {
	persona := &Persona{Name: "Support", RecencyBias: RecencyBiasNoDecay}
	assert.Equal(t, 10, persona.ChunkBudget(10))

	five := 5
	persona.NumChunks = &five
	assert.Equal(t, 5, persona.ChunkBudget(10))
}

func TestPersona_RetrievalDisabled(t *testing.T) {
	persona := &Persona{Name: "Support", RecencyBias: RecencyBiasNoDecay}
	assert.False(t, persona.RetrievalDisabled())

	zero := 0
	persona.NumChunks = &zero
	assert.True(t, persona.RetrievalDisabled())
}
