package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Greater(t, CountTokens("hello world"), 0)

	short := CountTokens("one sentence")
	long := CountTokens(strings.Repeat("one sentence ", 50))
	assert.Greater(t, long, short)
}

func TestTruncateTokens(t *testing.T) {
	assert.Equal(t, "", TruncateTokens("anything", 0))
	assert.Equal(t, "", TruncateTokens("anything", -1))

	// Short text fits the budget untouched.
	assert.Equal(t, "short", TruncateTokens("short", 100))

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	truncated := TruncateTokens(text, 10)
	assert.Less(t, len(truncated), len(text))
	assert.LessOrEqual(t, CountTokens(truncated), 10*4)
}
