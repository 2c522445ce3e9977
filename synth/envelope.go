package synth

import "math"

// EnvStage enumerates the four ADSR stages plus Idle.
type EnvStage uint8

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

func (s EnvStage) String() string {
	switch s {
	case EnvIdle:
		return "idle"
	case EnvAttack:
		return "attack"
	case EnvDecay:
		return "decay"
	case EnvSustain:
		return "sustain"
	case EnvRelease:
		return "release"
	}
	return "unknown"
}

// envCurve is the curvature constant of the RC-style stage curves: ln(1000),
// so a stage is within -60 dB of its target at its nominal time. The same
// constant shapes attack, decay and release.
const envCurve = 6.907755

// envDone is the band around a stage target inside which the stage is
// considered complete. Landing exactly on the target from an exponential
// approach never happens, so the final snap is at most this large; it is well
// below anything audible.
const envDone = 1e-3

// Envelope is a four-stage analog-modeled ADSR generator. Every stage is an
// exponential approach towards its target (capacitor charge/discharge), and
// the level is continuous across all transitions: note-off releases from the
// current level and a retrigger restarts the attack from the current level,
// so there is never a click.
type Envelope struct {
	sampleRate float32

	attack  float32 // seconds
	decay   float32 // seconds
	sustain float32 // level 0..1
	release float32 // seconds

	stage   EnvStage
	level   float32
	elapsed int // samples spent in the current stage
}

// NewEnvelope creates an idle envelope.
func NewEnvelope(sampleRate float32) Envelope {
	return Envelope{sampleRate: sampleRate, attack: 0.01, decay: 0.1, sustain: 0.7, release: 0.2}
}

// Configure sets the stage times (seconds) and sustain level. Out-of-range
// values are clamped; configuring never fails and may happen every buffer.
func (e *Envelope) Configure(attack, decay, sustain, release float32) {
	e.attack = clampTime(attack)
	e.decay = clampTime(decay)
	e.release = clampTime(release)
	if sustain < 0 {
		sustain = 0
	} else if sustain > 1 {
		sustain = 1
	}
	e.sustain = sustain
}

func clampTime(t float32) float32 {
	const minTime = 1e-4 // avoids a divide-by-zero; effectively instant
	if t < minTime {
		return minTime
	}
	if t > 60 {
		return 60
	}
	return t
}

// TriggerOn starts the attack stage. If the envelope is already sounding, the
// attack restarts from the current level, not from zero.
func (e *Envelope) TriggerOn() {
	e.stage = EnvAttack
	e.elapsed = 0
}

// TriggerOff moves to the release stage from whatever level the envelope is
// currently at. No-op when idle.
func (e *Envelope) TriggerOff() {
	if e.stage == EnvIdle {
		return
	}
	e.stage = EnvRelease
	e.elapsed = 0
}

// Stage returns the current stage.
func (e *Envelope) Stage() EnvStage { return e.stage }

// Level returns the current level without advancing.
func (e *Envelope) Level() float32 { return e.level }

// Active is true from trigger until the release curve has fully decayed.
func (e *Envelope) Active() bool { return e.stage != EnvIdle }

// Next advances the envelope by one sample and returns the level in [0, 1].
func (e *Envelope) Next() float32 {
	switch e.stage {
	case EnvAttack:
		e.level += (1 - e.level) * e.coef(e.attack)
		if e.level >= 1-envDone {
			e.level = 1
			e.stage = EnvDecay
			e.elapsed = 0
			return e.level
		}
	case EnvDecay:
		e.level += (e.sustain - e.level) * e.coef(e.decay)
		if diff := e.level - e.sustain; diff < envDone && diff > -envDone {
			e.level = e.sustain
			e.stage = EnvSustain
			e.elapsed = 0
			return e.level
		}
	case EnvSustain:
		e.level = e.sustain
	case EnvRelease:
		e.level -= e.level * e.coef(e.release)
		if e.level <= envDone {
			e.level = 0
			e.stage = EnvIdle
			e.elapsed = 0
			return 0
		}
	case EnvIdle:
		e.level = 0
		return 0
	}
	e.elapsed++
	return e.level
}

// coef is the per-sample approach coefficient so that the stage reaches
// within envDone of its target in t seconds.
func (e *Envelope) coef(t float32) float32 {
	return 1 - float32(math.Exp(float64(-envCurve/(t*e.sampleRate))))
}

// Reset forces the envelope to silence immediately. Only used when a voice is
// constructed; during normal operation voices always decay through Release.
func (e *Envelope) Reset() {
	e.stage = EnvIdle
	e.level = 0
	e.elapsed = 0
}
