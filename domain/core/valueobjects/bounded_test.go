package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp01(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"below range clamps to 0", -0.5, 0},
		{"above range clamps to 1", 1.5, 1},
		{"in range is unchanged", 0.42, 0.42},
		{"exactly 0 is unchanged", 0, 0},
		{"exactly 1 is unchanged", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp01(tt.in))
		})
	}
}

func TestValidateUnit(t *testing.T) {
	t.Run("in range is valid", func(t *testing.T) {
		require.NoError(t, ValidateUnit("confidence", 0.5))
		require.NoError(t, ValidateUnit("confidence", 0))
		require.NoError(t, ValidateUnit("confidence", 1))
	})

	t.Run("out of range is an error naming the field", func(t *testing.T) {
		err := ValidateUnit("confidence", -0.01)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "confidence")

		err = ValidateUnit("strength", 1.01)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strength")
	})
}
