package synth

import "fmt"

// MaxVoices bounds the pool size; beyond this the fixed 1/N mix headroom
// makes individual voices inaudibly quiet anyway.
const MaxVoices = 32

// Pool is a fixed set of voices with voice stealing. All allocation happens
// in NewPool; NoteOn, NoteOff and Render never allocate.
type Pool struct {
	voices []Voice
	seq    uint64 // monotonic note activation counter
	gain   float32
}

// NewPool creates a pool of numVoices voices. The mix gain is fixed at
// 1/numVoices so a full chord cannot clip before the effects chain.
func NewPool(sampleRate float32, numVoices int) (*Pool, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("pool: invalid sample rate %v", sampleRate)
	}
	if numVoices < 1 || numVoices > MaxVoices {
		return nil, fmt.Errorf("pool: voice count %d out of range 1..%d", numVoices, MaxVoices)
	}
	p := &Pool{
		voices: make([]Voice, numVoices),
		gain:   1 / float32(numVoices),
	}
	for i := range p.voices {
		p.voices[i] = NewVoice(sampleRate, uint32(i+1)*2654435761)
	}
	return p, nil
}

// NumVoices returns the pool size.
func (p *Pool) NumVoices() int { return len(p.voices) }

// NoteOn assigns a voice to the note. If the note is already sounding, its
// voice retriggers. Otherwise a free voice is used; when none is free, a
// voice is stolen: releasing voices first, then the quietest, oldest
// activation breaking ties.
func (p *Pool) NoteOn(note, velocity byte) {
	p.seq++
	vel := float32(velocity) / 127

	// Same note retriggers its own voice.
	for i := range p.voices {
		if p.voices[i].Active() && p.voices[i].Note() == note {
			p.voices[i].Start(note, vel, p.seq)
			return
		}
	}
	for i := range p.voices {
		if !p.voices[i].Active() {
			p.voices[i].Start(note, vel, p.seq)
			return
		}
	}
	p.voices[p.stealIndex()].Start(note, vel, p.seq)
}

// NoteOff releases the voice sounding the note. A note-off for a note that is
// not sounding is a no-op.
func (p *Pool) NoteOff(note byte) {
	for i := range p.voices {
		if p.voices[i].Active() && !p.voices[i].Releasing() && p.voices[i].Note() == note {
			p.voices[i].Release()
			return
		}
	}
}

// ReleaseAll moves every sounding voice to its release stage.
func (p *Pool) ReleaseAll() {
	for i := range p.voices {
		if p.voices[i].Active() {
			p.voices[i].Release()
		}
	}
}

// ActiveVoices counts the voices currently producing signal.
func (p *Pool) ActiveVoices() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].Active() {
			n++
		}
	}
	return n
}

// FilterFaults sums the non-finite reset counts of all voice filters.
func (p *Pool) FilterFaults() uint64 {
	var n uint64
	for i := range p.voices {
		n += p.voices[i].FilterFaults()
	}
	return n
}

// stealIndex picks the victim: a releasing voice if any (quietest wins), else
// the quietest sounding voice, oldest activation breaking level ties.
func (p *Pool) stealIndex() int {
	best := 0
	for i := 1; i < len(p.voices); i++ {
		v, b := &p.voices[i], &p.voices[best]
		switch {
		case v.Releasing() != b.Releasing():
			if v.Releasing() {
				best = i
			}
		case v.Level() != b.Level():
			if v.Level() < b.Level() {
				best = i
			}
		case v.Seq() < b.Seq():
			best = i
		}
	}
	return best
}

// Render mixes frames samples of every active voice into out, scaled by the
// fixed pool gain. out is overwritten, not accumulated.
func (p *Pool) Render(out []float32, frames int, params *VoiceParams) {
	for i := 0; i < frames; i++ {
		out[i] = 0
	}
	for i := range p.voices {
		p.voices[i].Render(out, frames, params)
	}
	for i := 0; i < frames; i++ {
		out[i] *= p.gain
	}
}
