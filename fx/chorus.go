// Package fx implements the stereo effects chain: bucket-brigade style
// chorus into a feedback delay into a comb/allpass reverb. Every effect
// allocates all of its state at construction and processes in place.
package fx

import (
	"fmt"
	"math"
)

// ChorusMode selects the classic bucket-brigade chorus programs. The two
// buttons of the original hardware give four combinations; Off bypasses the
// effect entirely.
type ChorusMode uint8

const (
	ChorusOff ChorusMode = iota
	ChorusI
	ChorusII
	ChorusIII
	ChorusIV
	numChorusModes
)

func (m ChorusMode) String() string {
	switch m {
	case ChorusOff:
		return "off"
	case ChorusI:
		return "I"
	case ChorusII:
		return "II"
	case ChorusIII:
		return "III"
	case ChorusIV:
		return "IV"
	}
	return "unknown"
}

// chorusMaxTaps is the most taps any mode uses (mode IV).
const chorusMaxTaps = 4

// chorusMaxDelay is the modulated delay line length in seconds.
const chorusMaxDelay = 0.040

type chorusTap struct {
	phaseL, phaseR float32
	rateL, rateR   float32 // Hz
	depth          float32 // seconds of modulated delay
	smoothDepth    float32
}

// Chorus is a multi-tap modulated delay with feedback, band-limiting of the
// wet path and a touch of noise and saturation, modeled on the bucket-brigade
// circuit it imitates.
type Chorus struct {
	sampleRate float32
	buffer     []float32
	index      int

	mode       ChorusMode
	taps       [chorusMaxTaps]chorusTap
	specs      [chorusMaxTaps]tapSpec
	n          int     // active taps
	mix        float32 // wet/dry, fixed per mode
	rateScale  float32
	depthScale float32

	feedback float32
	hp       onePoleHP
	lp       onePoleLP
	noise    bbdNoise
	drive    float32
}

// NewChorus creates a chorus in Off mode.
func NewChorus(sampleRate float32, seed uint32) (*Chorus, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("chorus: invalid sample rate %v", sampleRate)
	}
	if seed == 0 {
		seed = 1
	}
	c := &Chorus{
		sampleRate: sampleRate,
		buffer:     make([]float32, int(sampleRate*chorusMaxDelay)),
		feedback:   0.25,
		rateScale:  1,
		depthScale: 1,
		hp:         onePoleHP{cutoff: 20 / sampleRate},
		lp:         onePoleLP{cutoff: 8000 / sampleRate},
		noise:      bbdNoise{seed: seed, level: 0.0005},
		drive:      1.2,
	}
	// Tap phases are seeded so two engines never modulate in lockstep.
	for i := range c.taps {
		seed *= 16007
		c.taps[i].phaseL = lcgUnit(seed)
		seed *= 16007
		c.taps[i].phaseR = lcgUnit(seed)
	}
	return c, nil
}

func lcgUnit(seed uint32) float32 {
	return float32(seed) / float32(math.MaxUint32)
}

// SetMode switches the chorus program. Tap phases carry over so switching
// mid-note does not click.
func (c *Chorus) SetMode(m ChorusMode) {
	if m >= numChorusModes {
		m = ChorusOff
	}
	if m == c.mode {
		return
	}
	c.mode = m
	prog := chorusPrograms[m]
	c.mix = prog.mix
	c.n = prog.n
	for i := 0; i < prog.n; i++ {
		s := prog.taps[i]
		c.specs[i] = s
		t := &c.taps[i]
		t.rateL, t.rateR, t.depth = s.rateL*c.rateScale, s.rateR*c.rateScale, s.depth*c.depthScale
		// smoothDepth glides towards the new depth in Process.
	}
}

type tapSpec struct {
	rateL, rateR, depth float32
}

type chorusProgram struct {
	mix  float32
	n    int
	taps [chorusMaxTaps]tapSpec
}

// chorusPrograms holds the tap rates (Hz) and nominal depths (seconds) of the
// classic chorus programs. Mode switching only copies from this table, so the
// render path never allocates.
var chorusPrograms = [numChorusModes]chorusProgram{
	ChorusOff: {},
	ChorusI:   {mix: 0.5, n: 1, taps: [chorusMaxTaps]tapSpec{{0.513, 0.515, 0.00535}}},
	ChorusII:  {mix: 0.8, n: 1, taps: [chorusMaxTaps]tapSpec{{0.863, 0.865, 0.00535}}},
	ChorusIII: {mix: 0.5, n: 2, taps: [chorusMaxTaps]tapSpec{{0.513, 0.515, 0.0037}, {0.863, 0.865, 0.0037}}},
	ChorusIV: {mix: 0.6, n: 4, taps: [chorusMaxTaps]tapSpec{
		{0.5, 0.502, 0.007},
		{0.75, 0.752, 0.006},
		{1.0, 1.002, 0.005},
		{1.25, 1.252, 0.004},
	}},
}

// SetRate sets the modulator rate in Hz, clamped to [0.1, 10]. The program's
// inter-tap rate spread is preserved relative to its first tap.
func (c *Chorus) SetRate(hz float32) {
	if hz < 0.1 {
		hz = 0.1
	} else if hz > 10 {
		hz = 10
	}
	if c.n == 0 || c.specs[0].rateL == 0 {
		return
	}
	c.rateScale = hz / c.specs[0].rateL
	for i := 0; i < c.n; i++ {
		c.taps[i].rateL = c.specs[i].rateL * c.rateScale
		c.taps[i].rateR = c.specs[i].rateR * c.rateScale
	}
}

// SetDepth scales the program's modulation depth: 0 is none, 0.5 the
// program's nominal depth, 1 twice that.
func (c *Chorus) SetDepth(depth float32) {
	if depth < 0 {
		depth = 0
	} else if depth > 1 {
		depth = 1
	}
	c.depthScale = depth * 2
	for i := 0; i < c.n; i++ {
		c.taps[i].depth = c.specs[i].depth * c.depthScale
	}
}

// Mode returns the current program.
func (c *Chorus) Mode() ChorusMode { return c.mode }

// Process runs the chorus over stereo buffers in place. In Off mode the
// buffers pass through untouched.
func (c *Chorus) Process(left, right []float32) {
	if c.mode == ChorusOff {
		return
	}
	size := len(c.buffer)
	for i := range left {
		dry := (left[i] + right[i]) * 0.5
		in := c.lp.next(c.hp.next(dry))

		fb := c.buffer[c.index] * c.feedback
		if fb > 1 {
			fb = 1
		} else if fb < -1 {
			fb = -1
		}
		write := in + fb
		c.buffer[c.index] = write
		c.index++
		if c.index == size {
			c.index = 0
		}

		var wetL, wetR float32
		for t := 0; t < c.n; t++ {
			tap := &c.taps[t]
			tap.phaseL += tap.rateL / c.sampleRate
			if tap.phaseL >= 1 {
				tap.phaseL -= 1
			}
			tap.phaseR += tap.rateR / c.sampleRate
			if tap.phaseR >= 1 {
				tap.phaseR -= 1
			}
			tap.smoothDepth += (tap.depth - tap.smoothDepth) * 0.001

			// Two detuned sines per side break up the modulation period.
			lfoL := (sin(tap.phaseL)*0.51+0.5)*0.5 + (sin(tap.phaseL*1.101)*0.5+0.5)*0.5
			lfoR := (sin(tap.phaseR)*0.5+0.51)*0.5 + (sin(tap.phaseR*1.1)*0.5+0.5)*0.5

			wetL += c.read(tap.smoothDepth * c.sampleRate * lfoL)
			wetR += c.read(tap.smoothDepth * c.sampleRate * lfoR)
		}
		inv := 1 / float32(c.n)
		noise := c.noise.next()
		wetL = saturate(wetL*inv+write*0.5+noise, c.drive)
		wetR = saturate(wetR*inv+write*0.5+noise, c.drive)

		left[i] = clamp1((1-c.mix)*left[i] + c.mix*wetL)
		right[i] = clamp1((1-c.mix)*right[i] + c.mix*wetR)
	}
}

// read fetches a fractionally delayed sample with cubic interpolation.
func (c *Chorus) read(delay float32) float32 {
	size := len(c.buffer)
	max := float32(size - 1)
	if delay > max {
		delay = max
	} else if delay < 0 {
		delay = 0
	}
	whole := int(delay)
	frac := delay - float32(whole)
	idx := c.index - 1 - whole
	if idx < 0 {
		idx += size
	}
	y0 := c.buffer[(idx+size-1)%size]
	y1 := c.buffer[idx]
	y2 := c.buffer[(idx+1)%size]
	y3 := c.buffer[(idx+2)%size]

	mu2 := frac * frac
	a0 := y3 - y2 - y0 + y1
	a1 := y0 - y1 - a0
	a2 := y2 - y0
	return a0*frac*mu2 + a1*mu2 + a2*frac + y1
}

func sin(phase float32) float32 {
	return float32(math.Sin(2 * math.Pi * float64(phase)))
}

func saturate(x, drive float32) float32 {
	return float32(math.Tanh(float64(x * drive)))
}

func clamp1(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// onePoleLP conditions the wet path like the anti-aliasing filter in front of
// a bucket-brigade line.
type onePoleLP struct {
	prev   float32
	cutoff float32 // normalized
}

func (f *onePoleLP) next(x float32) float32 {
	alpha := f.cutoff / (f.cutoff + 1)
	f.prev += alpha * (x - f.prev) * 0.5
	return f.prev
}

// onePoleHP blocks DC from recirculating through the feedback path.
type onePoleHP struct {
	prevIn, prevOut float32
	cutoff          float32 // normalized
}

func (f *onePoleHP) next(x float32) float32 {
	alpha := 1 / (1 + f.cutoff)
	f.prevOut = alpha * (f.prevOut + x - f.prevIn)
	f.prevIn = x
	return f.prevOut
}

// bbdNoise adds the faint clock hiss of the analog delay line.
type bbdNoise struct {
	seed  uint32
	level float32
	prev  float32
}

func (n *bbdNoise) next() float32 {
	n.seed *= 16007
	fresh := n.level * float32(int32(n.seed)) / -math.MinInt32
	out := (n.prev + fresh) * 0.5
	n.prev = fresh
	return out
}
