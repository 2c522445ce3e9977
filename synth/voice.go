package synth

import "math"

// VoiceParams is the per-buffer parameter view a voice renders against. The
// pool derives one from the engine's parameter snapshot at the top of each
// buffer; voices never see a value change mid-buffer except through their own
// slews.
type VoiceParams struct {
	Waveform   Waveform
	PulseWidth float32
	DriftDepth float32
	OctaveMul  float32 // frequency multiplier from the octave switch

	Attack  float32
	Decay   float32
	Sustain float32
	Release float32

	Cutoff    float32 // Hz
	Resonance float32
	Drive     float32
	Mode      FilterMode
	EnvAmount float32 // octaves of cutoff sweep at full envelope

	LFORate     float32
	LFOShape    LFOShape
	PitchDepth  float32 // semitones
	CutoffDepth float32 // octaves
	AmpDepth    float32 // 0..1
}

// Voice is one monophonic signal path: oscillator into ladder filter, with a
// shared ADSR driving both amplitude and cutoff, and a per-voice LFO.
type Voice struct {
	sampleRate float32

	note     byte
	velocity float32
	seq      uint64 // activation order, handed out by the pool

	osc    Oscillator
	env    Envelope
	filter Ladder
	lfo    LFO

	detune     float32 // fixed per-voice ratio, baked at construction
	cutoffSlew Slew
	ampSlew    Slew
}

// NewVoice creates a silent voice. The seed fixes the voice's detune offset
// and drift walk so two voices never beat identically.
func NewVoice(sampleRate float32, seed uint32) Voice {
	if seed == 0 {
		seed = 1
	}
	// Fixed detune within +/- 4 cents, spread by the seed.
	seed *= 16007
	cents := 4 * float32(int32(seed)) / -math.MinInt32
	return Voice{
		sampleRate: sampleRate,
		osc:        NewOscillator(sampleRate, seed*16007),
		env:        NewEnvelope(sampleRate),
		filter:     NewLadder(sampleRate),
		lfo:        NewLFO(sampleRate, seed*16007*16007),
		detune:     float32(math.Pow(2, float64(cents)/1200)),
		cutoffSlew: NewSlew(sampleRate, 0.002),
		ampSlew:    NewSlew(sampleRate, 0.002),
	}
}

// Start triggers the voice for a note. A fresh activation resets the
// oscillator phase, filter state and LFO; a retrigger or steal of a sounding
// voice restarts only the envelope, from its current level, so the takeover
// does not click.
func (v *Voice) Start(note byte, velocity float32, seq uint64) {
	if velocity < 0 {
		velocity = 0
	} else if velocity > 1 {
		velocity = 1
	}
	if !v.env.Active() {
		v.osc.Reset(0)
		v.filter.Reset()
		v.lfo.Reset()
	}
	v.note = note
	v.velocity = velocity
	v.seq = seq
	v.env.TriggerOn()
}

// Release moves the voice's envelope to its release stage.
func (v *Voice) Release() { v.env.TriggerOff() }

// Active reports whether the voice still produces signal.
func (v *Voice) Active() bool { return v.env.Active() }

// Releasing reports whether the voice is in its release stage.
func (v *Voice) Releasing() bool { return v.env.Stage() == EnvRelease }

// Note returns the MIDI note the voice is sounding.
func (v *Voice) Note() byte { return v.note }

// Seq returns the activation sequence number of the current note.
func (v *Voice) Seq() uint64 { return v.seq }

// Level returns the current envelope level, used by the pool's steal scan.
func (v *Voice) Level() float32 { return v.env.Level() }

// FilterFaults returns the voice filter's non-finite reset count.
func (v *Voice) FilterFaults() uint64 { return v.filter.Faults() }

// Render adds frames samples of the voice into out. out must hold at least
// frames elements; the voice accumulates, it does not overwrite.
func (v *Voice) Render(out []float32, frames int, p *VoiceParams) {
	if !v.env.Active() {
		return
	}

	v.env.Configure(p.Attack, p.Decay, p.Sustain, p.Release)
	v.filter.SetResonance(p.Resonance)
	v.filter.SetDrive(p.Drive)
	v.filter.SetMode(p.Mode)
	v.lfo.SetRate(p.LFORate)
	v.lfo.SetShape(p.LFOShape)

	base := noteFreq(v.note) * v.detune * p.OctaveMul

	for i := 0; i < frames; i++ {
		mod := v.lfo.Next()
		env := v.env.Next()

		freq := base
		if p.PitchDepth != 0 {
			freq *= pow2(mod * p.PitchDepth / 12)
		}

		sample := v.osc.Next(OscInput{
			Frequency:  freq,
			Waveform:   p.Waveform,
			PulseWidth: p.PulseWidth,
			DriftDepth: p.DriftDepth,
			SyncFrac:   -1,
		})

		cutoff := p.Cutoff
		if p.EnvAmount != 0 || p.CutoffDepth != 0 {
			oct := p.EnvAmount*env + p.CutoffDepth*mod
			cutoff *= pow2(oct)
		}
		v.filter.SetCutoff(v.cutoffSlew.Next(cutoff))
		sample = v.filter.Next(sample)

		amp := env * v.velocity
		if p.AmpDepth > 0 {
			amp *= 1 - p.AmpDepth*0.5*(1-mod)
		}
		out[i] += sample * v.ampSlew.Next(amp)

		if !v.env.Active() {
			return
		}
	}
}

// noteFreq converts a MIDI note number to Hz with A4 = 440 at note 69.
func noteFreq(note byte) float32 {
	return 440 * pow2((float32(note)-69)/12)
}

func pow2(x float32) float32 {
	return float32(math.Exp2(float64(x)))
}
