package synth

import "math"

// Waveform selects the shape of the oscillator output.
type Waveform uint8

const (
	Sine Waveform = iota
	Triangle
	Saw
	Pulse

	numWaveforms
)

type (
	// Oscillator is a band-limited analog-style oscillator. The phase lives in
	// [0, 1) and wraps every step; saw and pulse discontinuities are corrected
	// with a polynomial band-limited step (polyBLEP), which also covers the
	// hard-sync reset edge. A slow seeded random walk detunes the frequency a
	// little every sample, emulating the thermal drift of an analog VCO.
	Oscillator struct {
		sampleRate float32
		phase      float32
		drift      driftWalk
	}

	// OscInput carries the per-sample inputs of the oscillator. FM is added to
	// the phase increment (cycles/sample), PM to the phase itself (cycles).
	// SyncFrac >= 0 means the master oscillator wrapped during this sample at
	// that fraction of the sample period, and the phase must reset.
	OscInput struct {
		Frequency  float32 // Hz, after pitch modulation
		Waveform   Waveform
		PulseWidth float32 // 0..1, pulse only
		DriftDepth float32 // max drift as a fraction of Frequency
		FM         float32
		PM         float32
		SyncFrac   float32 // < 0: no sync event this sample
	}

	// driftWalk is a deterministic, slowly varying random walk in [-1, 1].
	// A linear-congruential generator supplies the steps and a one-pole
	// lowpass removes everything resembling white noise from the output.
	driftWalk struct {
		seed  uint32
		value float32
	}
)

// NewOscillator creates an oscillator. The same seed always produces the same
// drift sequence.
func NewOscillator(sampleRate float32, seed uint32) Oscillator {
	if seed == 0 {
		seed = 1
	}
	return Oscillator{sampleRate: sampleRate, drift: driftWalk{seed: seed}}
}

// Reset rewinds the phase, keeping the drift state so retriggered notes do
// not all drift identically from zero.
func (o *Oscillator) Reset(phase float32) {
	o.phase = phase - float32(math.Floor(float64(phase)))
}

// Phase returns the current phase in [0, 1), used as a sync source by other
// oscillators.
func (o *Oscillator) Phase() float32 { return o.phase }

// Next advances the oscillator by one sample and returns the output in
// [-1, 1].
func (o *Oscillator) Next(in OscInput) float32 {
	freq := in.Frequency * (1 + o.drift.next()*in.DriftDepth)
	if freq < 0 {
		freq = 0
	}
	if max := o.sampleRate * 0.45; freq > max {
		freq = max
	}
	inc := freq/o.sampleRate + in.FM
	if inc < 0 {
		inc = 0
	} else if inc > 0.5 {
		inc = 0.5
	}

	o.phase += inc
	o.phase -= float32(math.Floor(float64(o.phase)))
	if in.SyncFrac >= 0 {
		// the master wrapped SyncFrac of a sample period ago; restart the
		// phase from where it would be had it reset exactly then. The jump is
		// a discontinuity like any other, so it gets the same polyBLEP
		// correction through the t < dt branch below.
		o.phase = in.SyncFrac * inc
	}

	phase := o.phase + in.PM
	phase -= float32(math.Floor(float64(phase)))

	switch in.Waveform {
	case Sine:
		return float32(math.Sin(2 * math.Pi * float64(phase)))
	case Triangle:
		if phase < 0.5 {
			return phase*4 - 1
		}
		return 3 - phase*4
	case Saw:
		return phase*2 - 1 - polyBLEP(phase, inc)
	case Pulse:
		width := in.PulseWidth
		if width < 0.05 {
			width = 0.05
		} else if width > 0.95 {
			width = 0.95
		}
		var value float32 = -1
		if phase < width {
			value = 1
		}
		value += polyBLEP(phase, inc)
		fall := phase - width
		fall -= float32(math.Floor(float64(fall)))
		value -= polyBLEP(fall, inc)
		return value
	}
	return 0
}

// polyBLEP is the 2-point polynomial band-limited step residual: subtracting
// it from a falling unit step (or adding at a rising one) smears the edge
// over two samples and suppresses the aliasing of the naive waveform.
func polyBLEP(t, dt float32) float32 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (d *driftWalk) next() float32 {
	d.seed *= 16007
	step := float32(int32(d.seed)) / -2147483648.0
	// heavy smoothing, then a soft pull back towards zero so the walk stays
	// bounded without ever hard-clipping
	d.value += step*1e-3 - d.value*1e-4
	if d.value > 1 {
		d.value = 1
	} else if d.value < -1 {
		d.value = -1
	}
	return d.value
}
