package synth

import "math"

// LFOShape selects the low-frequency oscillator waveform.
type LFOShape uint8

const (
	LFOSine LFOShape = iota
	LFOTriangle
	LFOSquare
	LFORandom // smoothed sample & hold
	numLFOShapes
)

func (s LFOShape) String() string {
	switch s {
	case LFOSine:
		return "sine"
	case LFOTriangle:
		return "triangle"
	case LFOSquare:
		return "square"
	case LFORandom:
		return "random"
	}
	return "unknown"
}

// LFO is a control-rate modulator producing values in [-1, 1]. The random
// shape holds a new value each cycle and slews towards it so cutoff
// modulation does not step audibly.
type LFO struct {
	sampleRate float32
	phase      float32
	rate       float32 // Hz
	shape      LFOShape

	seed   uint32
	held   float32 // current sample & hold target
	smooth float32 // slewed output for LFORandom
}

// NewLFO creates an LFO at 1 Hz in sine shape.
func NewLFO(sampleRate float32, seed uint32) LFO {
	if seed == 0 {
		seed = 1
	}
	return LFO{sampleRate: sampleRate, rate: 1, seed: seed}
}

// SetRate sets the frequency in Hz, clamped to [0.01, 40].
func (l *LFO) SetRate(hz float32) {
	if hz < 0.01 {
		hz = 0.01
	} else if hz > 40 {
		hz = 40
	}
	l.rate = hz
}

// SetShape selects the waveform.
func (l *LFO) SetShape(s LFOShape) {
	if s >= numLFOShapes {
		s = LFOSine
	}
	l.shape = s
}

// Reset restarts the cycle at phase zero.
func (l *LFO) Reset() {
	l.phase = 0
	l.smooth = 0
	l.held = 0
}

// Next advances by one sample and returns the value in [-1, 1].
func (l *LFO) Next() float32 {
	l.phase += l.rate / l.sampleRate
	if l.phase >= 1 {
		l.phase -= 1
		if l.shape == LFORandom {
			l.seed *= 16007
			l.held = float32(int32(l.seed)) / -math.MinInt32
		}
	}

	switch l.shape {
	case LFOSine:
		return float32(math.Sin(2 * math.Pi * float64(l.phase)))
	case LFOTriangle:
		if l.phase < 0.5 {
			return 4*l.phase - 1
		}
		return 3 - 4*l.phase
	case LFOSquare:
		if l.phase < 0.5 {
			return 1
		}
		return -1
	case LFORandom:
		// One-pole slew towards the held value, ~5 ms time constant.
		coef := 1 - float32(math.Exp(float64(-1/(0.005*l.sampleRate))))
		l.smooth += (l.held - l.smooth) * coef
		return l.smooth
	}
	return 0
}
