package synth

import "math"

// Slew is a one-pole smoother for control values. Stepping a cutoff or gain
// abruptly between buffers produces zipper noise; routing the value through a
// Slew spreads the step over a couple of milliseconds.
type Slew struct {
	value float32
	coef  float32
}

// NewSlew creates a smoother with the given time constant in seconds. A time
// of ~0.002 is enough to hide parameter steps without feeling laggy.
func NewSlew(sampleRate, time float32) Slew {
	if time <= 0 {
		return Slew{coef: 1}
	}
	return Slew{coef: 1 - float32(math.Exp(float64(-1/(time*sampleRate))))}
}

// Next moves the smoothed value towards target by one sample and returns it.
func (s *Slew) Next(target float32) float32 {
	s.value += (target - s.value) * s.coef
	return s.value
}

// Jump sets the value immediately, skipping the smoothing. Used when a voice
// starts so the first buffer does not sweep in from a stale value.
func (s *Slew) Jump(v float32) {
	s.value = v
}

// Value returns the current smoothed value without advancing.
func (s *Slew) Value() float32 { return s.value }
