package diffusion

import "errors"

// Sentinel errors returned by the diffusion core. All are fatal for the
// call that produced them and are surfaced to the caller unretried; none
// of them leaves a schedule, trainer or in-flight trajectory in a
// corrupted state.
var (
	// ErrInvalidSchedule is returned by NewSchedule for a non-positive
	// step count or beta bounds outside (0, 1) or out of order.
	ErrInvalidSchedule = errors.New("diffusion: invalid noise schedule")

	// ErrShapeMismatch is returned when a conditioning vector has the
	// wrong width or a model prediction does not match its input shape.
	ErrShapeMismatch = errors.New("diffusion: shape mismatch")

	// ErrInvalidStepSequence is returned for a sampling step sequence
	// that is empty, out of range, or not strictly descending.
	ErrInvalidStepSequence = errors.New("diffusion: invalid step sequence")
)
