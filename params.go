package rustwave

// Param identifies one continuous or stepped control of the synthesizer. The
// set is closed: the render side indexes a fixed array by Param, so no
// parameter is ever added or removed at run time.
type Param int

const (
	ParamOscWaveform Param = iota // 0 sine, 1 triangle, 2 saw, 3 pulse
	ParamOscPulseWidth
	ParamOscDriftDepth // fraction of nominal frequency, e.g. 0.001
	ParamOscOctave     // -2 .. 2, whole octaves
	ParamEnvAttack     // seconds
	ParamEnvDecay      // seconds
	ParamEnvSustain    // level 0..1
	ParamEnvRelease    // seconds
	ParamFilterCutoff  // Hz
	ParamFilterResonance
	ParamFilterDrive
	ParamFilterMode      // 0 lowpass, 1 bandpass, 2 highpass
	ParamFilterEnvAmount // octaves of cutoff sweep from the envelope
	ParamLFORate         // Hz
	ParamLFOShape        // 0 sine, 1 triangle, 2 square, 3 random
	ParamLFOPitchDepth   // semitones
	ParamLFOCutoffDepth  // octaves
	ParamLFOAmpDepth     // 0..1
	ParamMasterVolume
	ParamChorusMode // 0 off, 1..4 mode I..IV
	ParamChorusRate // Hz
	ParamChorusDepth
	ParamDelayTime // seconds
	ParamDelayFeedback
	ParamDelayDamp
	ParamDelayMix
	ParamDelayBypass // 0 active, 1 bypassed
	ParamReverbSize
	ParamReverbDamp
	ParamReverbMix
	ParamReverbBypass

	NumParams
)

// ParamRange documents the unit and valid range of one parameter. Values
// outside the range are clamped, never rejected: the render path must accept
// anything the control side throws at it.
type ParamRange struct {
	Name    string
	Min     float32
	Max     float32
	Default float32
	Unit    string
}

var paramRanges = [NumParams]ParamRange{
	ParamOscWaveform:     {"osc_waveform", 0, 3, 2, "enum"},
	ParamOscPulseWidth:   {"osc_pulsewidth", 0.05, 0.95, 0.5, ""},
	ParamOscDriftDepth:   {"osc_drift", 0, 0.01, 0.001, "ratio"},
	ParamOscOctave:       {"osc_octave", -2, 2, 0, "octaves"},
	ParamEnvAttack:       {"env_attack", 0.001, 10, 0.01, "s"},
	ParamEnvDecay:        {"env_decay", 0.001, 10, 0.1, "s"},
	ParamEnvSustain:      {"env_sustain", 0, 1, 0.7, ""},
	ParamEnvRelease:      {"env_release", 0.001, 10, 0.2, "s"},
	ParamFilterCutoff:    {"filter_cutoff", 20, 20000, 8000, "Hz"},
	ParamFilterResonance: {"filter_resonance", 0, 1, 0.2, ""},
	ParamFilterDrive:     {"filter_drive", 0.5, 4, 1, ""},
	ParamFilterMode:      {"filter_mode", 0, 2, 0, "enum"},
	ParamFilterEnvAmount: {"filter_env_amount", 0, 8, 0, "octaves"},
	ParamLFORate:         {"lfo_rate", 0.01, 40, 1, "Hz"},
	ParamLFOShape:        {"lfo_shape", 0, 3, 0, "enum"},
	ParamLFOPitchDepth:   {"lfo_pitch_depth", 0, 12, 0, "semitones"},
	ParamLFOCutoffDepth:  {"lfo_cutoff_depth", 0, 4, 0, "octaves"},
	ParamLFOAmpDepth:     {"lfo_amp_depth", 0, 1, 0, ""},
	ParamMasterVolume:    {"master_volume", 0, 1, 0.5, ""},
	ParamChorusMode:      {"chorus_mode", 0, 4, 0, "enum"},
	ParamChorusRate:      {"chorus_rate", 0.1, 10, 0.5, "Hz"},
	ParamChorusDepth:     {"chorus_depth", 0, 1, 0.5, ""},
	ParamDelayTime:       {"delay_time", 0.001, 2, 0.35, "s"},
	ParamDelayFeedback:   {"delay_feedback", 0, 0.95, 0.3, ""},
	ParamDelayDamp:       {"delay_damp", 0, 1, 0.4, ""},
	ParamDelayMix:        {"delay_mix", 0, 1, 0, ""},
	ParamDelayBypass:     {"delay_bypass", 0, 1, 0, "bool"},
	ParamReverbSize:      {"reverb_size", 0, 1, 0.5, ""},
	ParamReverbDamp:      {"reverb_damp", 0, 1, 0.5, ""},
	ParamReverbMix:       {"reverb_mix", 0, 1, 0, ""},
	ParamReverbBypass:    {"reverb_bypass", 0, 1, 0, "bool"},
}

var paramsByName = func() map[string]Param {
	m := make(map[string]Param, NumParams)
	for p := Param(0); p < NumParams; p++ {
		m[paramRanges[p].Name] = p
	}
	return m
}()

// Range returns the range information for the parameter. Out-of-range Params
// return the zero ParamRange.
func (p Param) Range() ParamRange {
	if p < 0 || p >= NumParams {
		return ParamRange{}
	}
	return paramRanges[p]
}

func (p Param) String() string { return p.Range().Name }

// Clamp forces the value into the documented range of the parameter.
func (p Param) Clamp(value float32) float32 {
	r := p.Range()
	if value < r.Min {
		return r.Min
	}
	if value > r.Max {
		return r.Max
	}
	return value
}

// ParamByName looks up a parameter by its preset-file name.
func ParamByName(name string) (Param, bool) {
	p, ok := paramsByName[name]
	return p, ok
}

// Snapshot is a versioned copy of all current parameter values, read once per
// render buffer. It is a plain value type: replacing the current snapshot is
// a struct copy, so an update is never partially visible.
type Snapshot struct {
	Version uint64
	Values  [NumParams]float32
}

// DefaultSnapshot returns a snapshot with every parameter at its default.
func DefaultSnapshot() Snapshot {
	var s Snapshot
	for p := Param(0); p < NumParams; p++ {
		s.Values[p] = paramRanges[p].Default
	}
	return s
}

// Set clamps the value into range and stores it, bumping the version.
// Unknown parameters are ignored; the render path never errors.
func (s *Snapshot) Set(p Param, value float32) {
	if p < 0 || p >= NumParams {
		return
	}
	s.Values[p] = p.Clamp(value)
	s.Version++
}

// Value returns the current value of the parameter.
func (s *Snapshot) Value(p Param) float32 {
	if p < 0 || p >= NumParams {
		return 0
	}
	return s.Values[p]
}
