package diffusion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewSchedule_Derivation checks the derived coefficient sequences.
func TestNewSchedule_Derivation(t *testing.T) {
	sched, err := NewSchedule(10, 0.001, 0.02)
	require.NoError(t, err)

	assert.Equal(t, 10, sched.Steps())
	assert.InDelta(t, 0.001, sched.Beta(0), 1e-12)
	assert.InDelta(t, 0.02, sched.Beta(9), 1e-12)

	// alpha[t] = 1 - beta[t], alphaBar[0] = alpha[0].
	for i := 0; i < 10; i++ {
		assert.InDelta(t, 1-sched.Beta(i), sched.Alpha(i), 1e-12)
	}
	assert.Equal(t, sched.Alpha(0), sched.AlphaBar(0))

	// Cumulative product check at t=2.
	want := sched.Alpha(0) * sched.Alpha(1) * sched.Alpha(2)
	assert.InDelta(t, want, sched.AlphaBar(2), 1e-15)
}

// TestSchedule_AlphaBarStrictlyDecreasing checks the core invariant:
// alphaBar is strictly decreasing and bounded in (0, 1].
func TestSchedule_AlphaBarStrictlyDecreasing(t *testing.T) {
	cases := []struct {
		steps            int
		betaMin, betaMax float64
	}{
		{1000, 1e-4, 0.02},
		{10, 0.1, 0.9},
		{2, 0.001, 0.002},
		{500, 0.01, 0.05},
	}

	for _, tc := range cases {
		sched, err := NewSchedule(tc.steps, tc.betaMin, tc.betaMax)
		require.NoError(t, err)

		prev := 1.0
		for i := 0; i < tc.steps; i++ {
			ab := sched.AlphaBar(i)
			assert.Greater(t, ab, 0.0, "alphaBar[%d] must stay positive", i)
			assert.LessOrEqual(t, ab, 1.0)
			assert.Less(t, ab, prev, "alphaBar must be strictly decreasing at %d", i)
			prev = ab
		}
	}
}

// TestSchedule_SqrtPairsConsistent checks the precomputed square-root pair
// against the alphaBar sequence.
func TestSchedule_SqrtPairsConsistent(t *testing.T) {
	sched, err := NewSchedule(100, 1e-4, 0.02)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		a := sched.SqrtAlphaBar(i)
		b := sched.SqrtOneMinusAlphaBar(i)
		assert.InDelta(t, sched.AlphaBar(i), a*a, 1e-12)
		assert.InDelta(t, 1-sched.AlphaBar(i), b*b, 1e-12)
	}
}

// TestNewSchedule_Invalid checks every construction failure mode.
func TestNewSchedule_Invalid(t *testing.T) {
	cases := []struct {
		name             string
		steps            int
		betaMin, betaMax float64
	}{
		{"zero steps", 0, 1e-4, 0.02},
		{"negative steps", -5, 1e-4, 0.02},
		{"equal bounds", 1000, 0.01, 0.01},
		{"inverted bounds", 1000, 0.02, 1e-4},
		{"betaMin zero", 1000, 0, 0.02},
		{"betaMin negative", 1000, -0.1, 0.02},
		{"betaMax one", 1000, 1e-4, 1.0},
		{"betaMax above one", 1000, 1e-4, 1.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched, err := NewSchedule(tc.steps, tc.betaMin, tc.betaMax)
			assert.Nil(t, sched)
			assert.True(t, errors.Is(err, ErrInvalidSchedule), "got %v", err)
		})
	}
}

// TestSchedule_ReferenceValues pins the standard DDPM configuration:
// T=1000, beta=[1e-4, 0.02].
func TestSchedule_ReferenceValues(t *testing.T) {
	sched, err := NewSchedule(1000, 1e-4, 0.02)
	require.NoError(t, err)

	assert.Greater(t, sched.AlphaBar(0), 0.999)
	assert.Less(t, sched.AlphaBar(999), 1e-3)
}

// TestSchedule_OutOfRangePanics checks index validation on lookups.
func TestSchedule_OutOfRangePanics(t *testing.T) {
	sched, err := NewSchedule(10, 1e-4, 0.02)
	require.NoError(t, err)

	assert.Panics(t, func() { sched.AlphaBar(10) })
	assert.Panics(t, func() { sched.Beta(-1) })
}
