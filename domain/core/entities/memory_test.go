package entities

import (
	"testing"
	"time"

	"agentmemory/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mem, err := NewMemory(NewMemoryParams{
		AgentID: "agent-1",
		Text:    "the sky is blue",
		Now:     now,
	})
	require.NoError(t, err)

	assert.Equal(t, LayerEpisodic, mem.Layer)
	assert.Equal(t, MemoryTypeFact, mem.MemoryType)
	assert.Equal(t, DefaultConfidence, mem.Confidence)
	assert.Equal(t, DefaultStrength, mem.Strength)
	assert.Equal(t, 0, mem.ReinforcementCount)
	assert.Equal(t, now, mem.CreatedAt)
	assert.Equal(t, now, mem.LastReinforcedAt)
	assert.Nil(t, mem.ExpiresAt)
	assert.NotEmpty(t, mem.ID)
}

func TestNewMemoryOverrides(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	custom := 0.9

	mem, err := NewMemory(NewMemoryParams{
		AgentID:    "agent-1",
		Text:       "user prefers dark mode",
		Layer:      LayerSemantic,
		MemoryType: MemoryTypePreference,
		Confidence: &custom,
		TTL:        24 * time.Hour,
		Now:        now,
	})
	require.NoError(t, err)

	assert.Equal(t, LayerSemantic, mem.Layer)
	assert.Equal(t, MemoryTypePreference, mem.MemoryType)
	assert.Equal(t, custom, mem.Confidence)
	require.NotNil(t, mem.ExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour), *mem.ExpiresAt)
}

func TestNewMemoryValidation(t *testing.T) {
	t.Run("empty text is rejected", func(t *testing.T) {
		_, err := NewMemory(NewMemoryParams{AgentID: "agent-1", Text: ""})
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("empty agent is rejected", func(t *testing.T) {
		_, err := NewMemory(NewMemoryParams{AgentID: "", Text: "x"})
		assert.ErrorIs(t, err, ErrEmptyAgent)
	})

	t.Run("invalid layer is rejected", func(t *testing.T) {
		_, err := NewMemory(NewMemoryParams{AgentID: "a", Text: "x", Layer: Layer("bogus")})
		assert.ErrorIs(t, err, ErrInvalidLayer)
	})

	t.Run("invalid memory type is rejected", func(t *testing.T) {
		_, err := NewMemory(NewMemoryParams{AgentID: "a", Text: "x", MemoryType: MemoryType("bogus")})
		assert.ErrorIs(t, err, ErrInvalidMemoryType)
	})

	t.Run("out-of-range confidence is rejected", func(t *testing.T) {
		bad := 1.5
		_, err := NewMemory(NewMemoryParams{AgentID: "a", Text: "x", Confidence: &bad})
		require.Error(t, err)
	})

	t.Run("embedding dimension mismatch is rejected", func(t *testing.T) {
		_, err := NewMemory(NewMemoryParams{AgentID: "a", Text: "x", Embedding: valueobjects.Embedding{1, 0}, ExpectedDimension: 3})
		assert.ErrorIs(t, err, ErrEmbeddingDimension)
	})

	t.Run("zero ExpectedDimension skips the check", func(t *testing.T) {
		_, err := NewMemory(NewMemoryParams{AgentID: "a", Text: "x", Embedding: valueobjects.Embedding{1, 0}})
		require.NoError(t, err)
	})
}

func TestDedupeStringsViaTags(t *testing.T) {
	mem, err := NewMemory(NewMemoryParams{
		AgentID: "a",
		Text:    "x",
		Tags:    []string{"go", "go", "", "rust", "go"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, mem.Tags)
}

func TestMergeTags(t *testing.T) {
	got := MergeTags([]string{"go", "rust"}, []string{"rust", "python"})
	assert.ElementsMatch(t, []string{"go", "rust", "python"}, got)
}

func TestLayerValid(t *testing.T) {
	assert.True(t, LayerWorking.Valid())
	assert.True(t, LayerArchival.Valid())
	assert.False(t, Layer("nonexistent").Valid())
}

func TestMemoryTypeValid(t *testing.T) {
	assert.True(t, MemoryTypeFact.Valid())
	assert.True(t, MemoryTypeOpinion.Valid())
	assert.False(t, MemoryType("nonexistent").Valid())
}
