package engine

import (
	"fmt"

	"github.com/SauersML/RustWave"
	"github.com/SauersML/RustWave/fx"
	"github.com/SauersML/RustWave/synth"
)

// Engine sample rate bounds. Anything a sound card offers sits inside these.
const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// defaultBridgeCapacity holds roughly a second of dense knob movement.
const defaultBridgeCapacity = 1024

// Engine ties the whole synthesizer together. Exactly one goroutine may call
// Render; all other goroutines talk to it through the Bridge.
type Engine struct {
	sampleRate int
	bridge     *Bridge
	pool       *synth.Pool
	chain      *fx.Chain
	snapshot   rustwave.Snapshot
	vparams    synth.VoiceParams
	masterSlew synth.Slew
	meter      *Meter

	// Scratch buffers sized at construction so Render never allocates.
	mono  []float32
	left  []float32
	right []float32
}

// maxFrames is the largest buffer Render accepts per call. Callers with
// bigger device buffers split them.
const maxFrames = 8192

// NewEngine builds a synthesizer with the given sample rate and voice count.
func NewEngine(sampleRate, numVoices int) (*Engine, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("engine: sample rate %d out of range %d..%d", sampleRate, MinSampleRate, MaxSampleRate)
	}
	pool, err := synth.NewPool(float32(sampleRate), numVoices)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	chain, err := fx.NewChain(float32(sampleRate), uint32(sampleRate)^0x9e3779b9)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	bridge, err := NewBridge(defaultBridgeCapacity)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e := &Engine{
		sampleRate: sampleRate,
		bridge:     bridge,
		pool:       pool,
		chain:      chain,
		snapshot:   rustwave.DefaultSnapshot(),
		masterSlew: synth.NewSlew(float32(sampleRate), 0.002),
		meter:      newMeter(maxFrames),
		mono:       make([]float32, maxFrames),
		left:       make([]float32, maxFrames),
		right:      make([]float32, maxFrames),
	}
	e.masterSlew.Jump(e.snapshot.Value(rustwave.ParamMasterVolume))
	return e, nil
}

// SampleRate returns the rate the engine was built for.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Bridge returns the control-side handle for publishing events.
func (e *Engine) Bridge() *Bridge { return e.bridge }

// PublishParam queues a parameter change for the next Render call. It never
// blocks; it reports whether the message was queued.
func (e *Engine) PublishParam(id rustwave.Param, value float32) bool {
	return e.bridge.PublishParam(id, value)
}

// PublishNoteOn queues a note-on event.
func (e *Engine) PublishNoteOn(note, velocity byte) bool {
	return e.bridge.PublishNoteOn(note, velocity)
}

// PublishNoteOff queues a note-off event.
func (e *Engine) PublishNoteOff(note byte) bool {
	return e.bridge.PublishNoteOff(note)
}

// Snapshot returns a copy of the parameter state as of the last Render call.
func (e *Engine) Snapshot() rustwave.Snapshot { return e.snapshot }

// ApplyPatch publishes every setting of a patch through the bridge, so a
// patch load is ordered like any other control traffic. Returns the number of
// settings that could not be queued.
func (e *Engine) ApplyPatch(p rustwave.Patch) int {
	dropped := 0
	for _, s := range p.Resolved() {
		if !e.bridge.PublishParam(s.Param, s.Value) {
			dropped++
		}
	}
	return dropped
}

// Render fills buffer with the next frames of audio. It implements
// rustwave.Renderer: it always fills the whole buffer and never blocks, so it
// is safe to call from an audio callback deadline.
func (e *Engine) Render(buffer rustwave.AudioBuffer) {
	for len(buffer) > maxFrames {
		e.renderChunk(buffer[:maxFrames])
		buffer = buffer[maxFrames:]
	}
	if len(buffer) > 0 {
		e.renderChunk(buffer)
	}
}

func (e *Engine) renderChunk(buffer rustwave.AudioBuffer) {
	frames := len(buffer)
	e.drain()
	e.deriveVoiceParams()
	e.chain.Apply(&e.snapshot)

	mono := e.mono[:frames]
	left := e.left[:frames]
	right := e.right[:frames]

	e.pool.Render(mono, frames, &e.vparams)
	copy(left, mono)
	copy(right, mono)

	e.chain.Process(left, right)

	for i := 0; i < frames; i++ {
		gain := e.masterSlew.Next(e.snapshot.Value(rustwave.ParamMasterVolume))
		buffer[i][0] = clamp1(left[i] * gain)
		buffer[i][1] = clamp1(right[i] * gain)
	}

	e.meter.update(buffer)
}

// drain consumes every pending control event before the buffer is rendered,
// so all events published before a Render call take effect in that call.
func (e *Engine) drain() {
	for {
		m, ok := e.bridge.tryRecv()
		if !ok {
			return
		}
		switch m.kind {
		case msgParam:
			e.snapshot.Set(m.param, m.value)
		case msgNoteOn:
			e.pool.NoteOn(m.note, m.velocity)
		case msgNoteOff:
			e.pool.NoteOff(m.note)
		case msgAllNotesOff:
			e.pool.ReleaseAll()
		}
	}
}

// deriveVoiceParams translates the raw snapshot into the typed per-buffer
// view the voices render against.
func (e *Engine) deriveVoiceParams() {
	s := &e.snapshot
	octave := int(s.Value(rustwave.ParamOscOctave))
	e.vparams = synth.VoiceParams{
		Waveform:   synth.Waveform(s.Value(rustwave.ParamOscWaveform)),
		PulseWidth: s.Value(rustwave.ParamOscPulseWidth),
		DriftDepth: s.Value(rustwave.ParamOscDriftDepth),
		OctaveMul:  octaveMul(octave),

		Attack:  s.Value(rustwave.ParamEnvAttack),
		Decay:   s.Value(rustwave.ParamEnvDecay),
		Sustain: s.Value(rustwave.ParamEnvSustain),
		Release: s.Value(rustwave.ParamEnvRelease),

		Cutoff:    s.Value(rustwave.ParamFilterCutoff),
		Resonance: s.Value(rustwave.ParamFilterResonance),
		Drive:     s.Value(rustwave.ParamFilterDrive),
		Mode:      synth.FilterMode(s.Value(rustwave.ParamFilterMode)),
		EnvAmount: s.Value(rustwave.ParamFilterEnvAmount),

		LFORate:     s.Value(rustwave.ParamLFORate),
		LFOShape:    synth.LFOShape(s.Value(rustwave.ParamLFOShape)),
		PitchDepth:  s.Value(rustwave.ParamLFOPitchDepth),
		CutoffDepth: s.Value(rustwave.ParamLFOCutoffDepth),
		AmpDepth:    s.Value(rustwave.ParamLFOAmpDepth),
	}
}

func octaveMul(oct int) float32 {
	switch {
	case oct <= -2:
		return 0.25
	case oct == -1:
		return 0.5
	case oct == 1:
		return 2
	case oct >= 2:
		return 4
	}
	return 1
}

// ActiveVoices reports how many voices are currently sounding. Render-thread
// only, like Render itself.
func (e *Engine) ActiveVoices() int { return e.pool.ActiveVoices() }

// FilterFaults reports the total non-finite filter resets across all voices.
func (e *Engine) FilterFaults() uint64 { return e.pool.FilterFaults() }

// Peak returns the most recent buffer's peak level. Safe from any goroutine.
func (e *Engine) Peak() float32 { return e.meter.Peak() }

// RMS returns the most recent buffer's RMS level. Safe from any goroutine.
func (e *Engine) RMS() float32 { return e.meter.RMS() }

func clamp1(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
