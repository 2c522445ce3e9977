package synth

import "math"

// FilterMode selects which tap of the ladder is mixed to the output.
type FilterMode uint8

const (
	FilterLowPass FilterMode = iota
	FilterBandPass
	FilterHighPass
	numFilterModes
)

func (m FilterMode) String() string {
	switch m {
	case FilterLowPass:
		return "lowpass"
	case FilterBandPass:
		return "bandpass"
	case FilterHighPass:
		return "highpass"
	}
	return "unknown"
}

// Ladder is a nonlinear four-pole transistor-ladder filter. Each pole is a
// one-pole lowpass with a tanh soft clipper in the feedback path, run at 2x
// the engine rate so the nonlinearity stays stable near self-oscillation.
type Ladder struct {
	sampleRate float32

	cutoff    float32 // Hz, clamped to [20, 0.45*sampleRate]
	resonance float32 // 0..1, ~1 is self-oscillation
	drive     float32 // input gain into the first clipper, 1..~10
	mode      FilterMode

	g  float32    // per-stage coefficient at the oversampled rate
	s  [4]float32 // stage states
	u  float32    // last input into the first pole, after drive and feedback
	fb float32    // feedback amount, 4*resonance

	faults uint64 // non-finite resets since construction
}

// NewLadder creates a ladder filter with the cutoff wide open.
func NewLadder(sampleRate float32) Ladder {
	l := Ladder{sampleRate: sampleRate, drive: 1}
	l.SetCutoff(sampleRate * 0.45)
	return l
}

// SetCutoff sets the cutoff frequency in Hz. Values outside the stable range
// are clamped.
func (l *Ladder) SetCutoff(hz float32) {
	max := l.sampleRate * 0.45
	if hz < 20 {
		hz = 20
	} else if hz > max {
		hz = max
	}
	l.cutoff = hz
	// Coefficient for the oversampled rate. The exp mapping keeps the pole
	// inside the unit circle for any cutoff the clamp admits.
	l.g = 1 - float32(math.Exp(float64(-2*math.Pi*hz/(l.sampleRate*2))))
}

// SetResonance sets the feedback amount, 0 (none) to 1 (self-oscillation).
func (l *Ladder) SetResonance(r float32) {
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}
	l.resonance = r
	l.fb = 4 * r
}

// SetDrive sets the input gain into the first nonlinearity.
func (l *Ladder) SetDrive(d float32) {
	if d < 1 {
		d = 1
	} else if d > 10 {
		d = 10
	}
	l.drive = d
}

// SetMode selects the output tap.
func (l *Ladder) SetMode(m FilterMode) {
	if m >= numFilterModes {
		m = FilterLowPass
	}
	l.mode = m
}

// Faults returns how many times the filter has reset itself after its state
// went non-finite.
func (l *Ladder) Faults() uint64 { return l.faults }

// Reset zeroes the filter state.
func (l *Ladder) Reset() {
	l.s = [4]float32{}
	l.u = 0
}

// Next filters one sample.
func (l *Ladder) Next(x float32) float32 {
	// Two oversampled steps per engine sample, decimated by averaging the two
	// substep outputs. The input is held for both; at 2x a zero-order hold is
	// fine for a synth voice.
	l.step(x)
	y := l.tap()
	l.step(x)
	y = (y + l.tap()) * 0.5

	if !finite(y) {
		l.Reset()
		l.faults++
		return 0
	}
	return y
}

func (l *Ladder) tap() float32 {
	switch l.mode {
	case FilterBandPass:
		return l.s[1] - l.s[3]
	case FilterHighPass:
		return l.u - l.s[0]
	}
	return l.s[3]
}

func (l *Ladder) step(x float32) {
	in := softclip(x*l.drive - l.fb*l.s[3])
	l.u = in
	l.s[0] += l.g * (in - l.s[0])
	l.s[1] += l.g * (softclip(l.s[0]) - l.s[1])
	l.s[2] += l.g * (softclip(l.s[1]) - l.s[2])
	l.s[3] += l.g * (softclip(l.s[2]) - l.s[3])
}

// softclip is a rational tanh approximation, monotonic and bounded to (-1, 1)
// after the hard limit at |x| = 3.
func softclip(x float32) float32 {
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func finite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
