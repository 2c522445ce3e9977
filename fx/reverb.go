package fx

import "fmt"

// Jezar's Freeverb tuning, in samples at 44.1 kHz. The delays are scaled to
// the engine rate at construction; the right channel runs the same network
// shifted by stereoSpread samples.
var (
	combTuning    = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [4]int{556, 441, 341, 225}
)

const (
	reverbGain   = 0.015
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	scaleDamping = 0.4
	stereoSpread = 23
)

type comb struct {
	buffer   []float32
	index    int
	feedback float32
	filtered float32 // damping lowpass state
	damp     float32
}

func (c *comb) next(x float32) float32 {
	out := c.buffer[c.index]
	c.filtered = out*(1-c.damp) + c.filtered*c.damp
	c.buffer[c.index] = x + c.filtered*c.feedback
	c.index++
	if c.index == len(c.buffer) {
		c.index = 0
	}
	return out
}

type allpass struct {
	buffer []float32
	index  int
}

func (a *allpass) next(x float32) float32 {
	buf := a.buffer[a.index]
	a.buffer[a.index] = x + buf*0.5
	a.index++
	if a.index == len(a.buffer) {
		a.index = 0
	}
	return buf - x
}

// Reverb is a Schroeder reverberator: eight parallel damped combs into four
// series allpasses per channel. Size and damping are settable per buffer; the
// delay network itself is fixed at construction.
type Reverb struct {
	combL    [8]comb
	combR    [8]comb
	allL     [4]allpass
	allR     [4]allpass
	size     float32
	damp     float32
	mix      float32
	bypassed bool
}

// NewReverb allocates the delay network for the given sample rate.
func NewReverb(sampleRate float32) (*Reverb, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("reverb: invalid sample rate %v", sampleRate)
	}
	scale := sampleRate / 44100
	r := &Reverb{mix: 0.3}
	for i, t := range combTuning {
		r.combL[i].buffer = make([]float32, scaled(t, scale))
		r.combR[i].buffer = make([]float32, scaled(t+stereoSpread, scale))
	}
	for i, t := range allpassTuning {
		r.allL[i].buffer = make([]float32, scaled(t, scale))
		r.allR[i].buffer = make([]float32, scaled(t+stereoSpread, scale))
	}
	r.SetSize(0.5)
	r.SetDamp(0.5)
	return r, nil
}

func scaled(samples int, scale float32) int {
	n := int(float32(samples) * scale)
	if n < 1 {
		n = 1
	}
	return n
}

// SetSize sets the room size, 0 (tight) to 1 (hall).
func (r *Reverb) SetSize(size float32) {
	if size < 0 {
		size = 0
	} else if size > 1 {
		size = 1
	}
	r.size = size
	feedback := size*scaleRoom + offsetRoom
	for i := range r.combL {
		r.combL[i].feedback = feedback
		r.combR[i].feedback = feedback
	}
}

// SetDamp sets high-frequency damping inside the comb feedback, 0 to 1.
func (r *Reverb) SetDamp(damp float32) {
	if damp < 0 {
		damp = 0
	} else if damp > 1 {
		damp = 1
	}
	r.damp = damp
	d := damp * scaleDamping
	for i := range r.combL {
		r.combL[i].damp = d
		r.combR[i].damp = d
	}
}

// SetMix sets the wet level, 0 to 1. Dry always passes at unity.
func (r *Reverb) SetMix(mix float32) {
	if mix < 0 {
		mix = 0
	} else if mix > 1 {
		mix = 1
	}
	r.mix = mix
}

// SetBypass toggles the effect. The network keeps its state while bypassed so
// re-engaging does not restart the tail from silence.
func (r *Reverb) SetBypass(b bool) { r.bypassed = b }

// Bypassed reports the bypass state.
func (r *Reverb) Bypassed() bool { return r.bypassed }

// Process reverberates stereo buffers in place.
func (r *Reverb) Process(left, right []float32) {
	if r.bypassed {
		return
	}
	for i := range left {
		in := (left[i] + right[i]) * reverbGain
		var outL, outR float32
		for c := range r.combL {
			outL += r.combL[c].next(in)
			outR += r.combR[c].next(in)
		}
		for a := range r.allL {
			outL = r.allL[a].next(outL)
			outR = r.allR[a].next(outR)
		}
		left[i] = clamp1(left[i] + outL*r.mix)
		right[i] = clamp1(right[i] + outR*r.mix)
	}
}

// Reset silences the reverb tail.
func (r *Reverb) Reset() {
	for i := range r.combL {
		zero(r.combL[i].buffer)
		zero(r.combR[i].buffer)
		r.combL[i].filtered = 0
		r.combR[i].filtered = 0
	}
	for i := range r.allL {
		zero(r.allL[i].buffer)
		zero(r.allR[i].buffer)
	}
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
