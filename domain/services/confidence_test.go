package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReinforce(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{"mid value moves toward 1", 0.5, 0.5 + 0.05*0.5},
		{"already at 1 stays at 1", 1.0, 1.0},
		{"zero moves up by the full step", 0.0, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reinforce(tt.confidence)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, tt.confidence)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestWeakContradiction(t *testing.T) {
	got := WeakContradiction(0.8)
	assert.InDelta(t, 0.8-0.10*0.8, got, 1e-9)
	assert.Less(t, got, 0.8)
}

func TestStrongContradiction(t *testing.T) {
	got := StrongContradiction(0.8)
	assert.InDelta(t, 0.8-0.30*0.8, got, 1e-9)
	assert.Less(t, got, 0.8)
}

func TestStrongContradictionPullsHarderThanWeak(t *testing.T) {
	weak := WeakContradiction(0.8)
	strong := StrongContradiction(0.8)
	assert.Less(t, strong, weak)
}

func TestIsStrongContradiction(t *testing.T) {
	tests := []struct {
		atomConfidence float64
		want           bool
	}{
		{0.75, false},
		{0.7501, true},
		{0.9, true},
		{0.1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsStrongContradiction(tt.atomConfidence), "atomConfidence=%v", tt.atomConfidence)
	}
}

func TestApplyContradiction(t *testing.T) {
	t.Run("weak path below threshold", func(t *testing.T) {
		got := ApplyContradiction(0.8, 0.5)
		assert.InDelta(t, WeakContradiction(0.8), got, 1e-9)
	})
	t.Run("strong path above threshold", func(t *testing.T) {
		got := ApplyContradiction(0.8, 0.9)
		assert.InDelta(t, StrongContradiction(0.8), got, 1e-9)
	})
}

func TestBoundsAreClampedAtExtremes(t *testing.T) {
	assert.Equal(t, 0.0, WeakContradiction(0.0))
	assert.Equal(t, 0.0, StrongContradiction(0.0))
	assert.Equal(t, 1.0, Reinforce(1.0))
}
