package diffusion

import (
	"fmt"
	"math"
)

// Schedule holds the per-step coefficients of a linear-beta noise schedule.
//
// All derived sequences are computed once at construction and never mutated,
// so a single Schedule can be shared read-only between a Trainer and any
// number of concurrent Samplers without locking.
//
// For step index t in [0, T):
//
//	beta[t]     = betaMin + (betaMax-betaMin) * t/(T-1)
//	alpha[t]    = 1 - beta[t]
//	alphaBar[t] = alpha[0] * alpha[1] * ... * alpha[t]
//
// alphaBar is strictly decreasing and bounded in (0, 1].
type Schedule struct {
	steps                int
	beta                 []float64
	alpha                []float64
	alphaBar             []float64
	sqrtAlphaBar         []float64
	sqrtOneMinusAlphaBar []float64
}

// NewSchedule builds a Schedule from the step count and beta bounds.
//
// Returns an error wrapping ErrInvalidSchedule if steps <= 0, either bound
// lies outside (0, 1), or betaMin >= betaMax. A failed construction never
// yields a partially usable schedule.
func NewSchedule(steps int, betaMin, betaMax float64) (*Schedule, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidSchedule, steps)
	}
	if betaMin <= 0 || betaMin >= 1 {
		return nil, fmt.Errorf("%w: betaMin %g outside (0, 1)", ErrInvalidSchedule, betaMin)
	}
	if betaMax <= 0 || betaMax >= 1 {
		return nil, fmt.Errorf("%w: betaMax %g outside (0, 1)", ErrInvalidSchedule, betaMax)
	}
	if betaMin >= betaMax {
		return nil, fmt.Errorf("%w: betaMin %g >= betaMax %g", ErrInvalidSchedule, betaMin, betaMax)
	}

	s := &Schedule{
		steps:                steps,
		beta:                 make([]float64, steps),
		alpha:                make([]float64, steps),
		alphaBar:             make([]float64, steps),
		sqrtAlphaBar:         make([]float64, steps),
		sqrtOneMinusAlphaBar: make([]float64, steps),
	}

	prod := 1.0
	for t := 0; t < steps; t++ {
		frac := 0.0
		if steps > 1 {
			frac = float64(t) / float64(steps-1)
		}
		s.beta[t] = betaMin + (betaMax-betaMin)*frac
		s.alpha[t] = 1 - s.beta[t]
		prod *= s.alpha[t]
		s.alphaBar[t] = prod
		s.sqrtAlphaBar[t] = math.Sqrt(prod)
		s.sqrtOneMinusAlphaBar[t] = math.Sqrt(1 - prod)
	}
	return s, nil
}

// Steps returns T, the number of diffusion steps.
func (s *Schedule) Steps() int {
	return s.steps
}

// Beta returns beta[t]. Panics if t is outside [0, T).
func (s *Schedule) Beta(t int) float64 {
	return s.beta[s.check(t)]
}

// Alpha returns alpha[t] = 1 - beta[t]. Panics if t is outside [0, T).
func (s *Schedule) Alpha(t int) float64 {
	return s.alpha[s.check(t)]
}

// AlphaBar returns the cumulative product alpha[0..t].
// Panics if t is outside [0, T).
func (s *Schedule) AlphaBar(t int) float64 {
	return s.alphaBar[s.check(t)]
}

// SqrtAlphaBar returns sqrt(alphaBar[t]), the clean-signal coefficient of
// the forward corruption. Panics if t is outside [0, T).
func (s *Schedule) SqrtAlphaBar(t int) float64 {
	return s.sqrtAlphaBar[s.check(t)]
}

// SqrtOneMinusAlphaBar returns sqrt(1 - alphaBar[t]), the noise coefficient
// of the forward corruption. Panics if t is outside [0, T).
func (s *Schedule) SqrtOneMinusAlphaBar(t int) float64 {
	return s.sqrtOneMinusAlphaBar[s.check(t)]
}

func (s *Schedule) check(t int) int {
	if t < 0 || t >= s.steps {
		panic(fmt.Sprintf("diffusion: step index %d out of range [0, %d)", t, s.steps))
	}
	return t
}
