package fx

import (
	"fmt"
	"math"
)

// DelayMaxTime is the longest delay time the line supports, in seconds.
const DelayMaxTime = 2.0

// Delay is a stereo feedback delay with a one-pole damping filter in the
// feedback path, so repeats darken the way tape echoes do. The ring buffers
// are sized for DelayMaxTime at construction; changing the time only moves
// the read tap.
type Delay struct {
	sampleRate float32
	bufL, bufR []float32
	index      int

	time     float32 // seconds
	delay    int     // samples, derived from time
	feedback float32
	damp     float32
	mix      float32
	dampL    float32 // damping filter states
	dampR    float32
	bypassed bool
}

// NewDelay allocates the delay lines for the given sample rate.
func NewDelay(sampleRate float32) (*Delay, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("delay: invalid sample rate %v", sampleRate)
	}
	size := int(sampleRate*DelayMaxTime) + 1
	d := &Delay{
		sampleRate: sampleRate,
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
		mix:        0.25,
	}
	d.SetTime(0.35)
	d.SetFeedback(0.35)
	d.SetDamp(0.3)
	return d, nil
}

// SetTime sets the delay time in seconds, clamped to [1ms, DelayMaxTime].
func (d *Delay) SetTime(t float32) {
	if t < 0.001 {
		t = 0.001
	} else if t > DelayMaxTime {
		t = DelayMaxTime
	}
	d.time = t
	d.delay = int(t * d.sampleRate)
	if d.delay < 1 {
		d.delay = 1
	} else if d.delay >= len(d.bufL) {
		d.delay = len(d.bufL) - 1
	}
}

// SetFeedback sets the repeat amount, clamped below unity so the loop always
// decays.
func (d *Delay) SetFeedback(fb float32) {
	if fb < 0 {
		fb = 0
	} else if fb > 0.95 {
		fb = 0.95
	}
	d.feedback = fb
}

// SetDamp sets the high-frequency loss per repeat, 0 (bright) to 1 (dark).
func (d *Delay) SetDamp(damp float32) {
	if damp < 0 {
		damp = 0
	} else if damp > 0.99 {
		damp = 0.99
	}
	d.damp = damp
}

// SetMix sets the wet level, 0 to 1.
func (d *Delay) SetMix(mix float32) {
	if mix < 0 {
		mix = 0
	} else if mix > 1 {
		mix = 1
	}
	d.mix = mix
}

// SetBypass toggles the effect; the line is frozen while bypassed, so
// whatever it held plays out when the effect comes back.
func (d *Delay) SetBypass(b bool) { d.bypassed = b }

// Bypassed reports the bypass state.
func (d *Delay) Bypassed() bool { return d.bypassed }

// Process runs the delay over stereo buffers in place.
func (d *Delay) Process(left, right []float32) {
	if d.bypassed {
		return
	}
	size := len(d.bufL)
	for i := range left {
		read := d.index - d.delay
		if read < 0 {
			read += size
		}
		wetL := d.bufL[read]
		wetR := d.bufR[read]

		// Damp the recirculating signal, not the first echo.
		d.dampL = wetL*(1-d.damp) + d.dampL*d.damp
		d.dampR = wetR*(1-d.damp) + d.dampR*d.damp

		d.bufL[d.index] = sanitize(left[i] + d.dampL*d.feedback)
		d.bufR[d.index] = sanitize(right[i] + d.dampR*d.feedback)
		d.index++
		if d.index == size {
			d.index = 0
		}

		left[i] = clamp1(left[i] + wetL*d.mix)
		right[i] = clamp1(right[i] + wetR*d.mix)
	}
}

// Reset clears the delay lines.
func (d *Delay) Reset() {
	zero(d.bufL)
	zero(d.bufR)
	d.dampL, d.dampR = 0, 0
}

// sanitize stops a non-finite sample from poisoning the feedback loop.
func sanitize(x float32) float32 {
	if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
		return 0
	}
	return x
}
