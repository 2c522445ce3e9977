package synth

import (
	"math"
	"testing"
)

func testVoiceParams() VoiceParams {
	return VoiceParams{
		Waveform:   Saw,
		PulseWidth: 0.5,
		OctaveMul:  1,
		Attack:     0.005,
		Decay:      0.05,
		Sustain:    0.7,
		Release:    0.05,
		Cutoff:     8000,
		Drive:      1,
		LFORate:    1,
	}
}

func TestNewPoolValidation(t *testing.T) {
	if _, err := NewPool(44100, 0); err == nil {
		t.Fatal("zero voices accepted")
	}
	if _, err := NewPool(44100, MaxVoices+1); err == nil {
		t.Fatal("too many voices accepted")
	}
	if _, err := NewPool(0, 8); err == nil {
		t.Fatal("zero sample rate accepted")
	}
	pool, err := NewPool(44100, 8)
	if err != nil {
		t.Fatalf("valid pool rejected: %v", err)
	}
	if pool.NumVoices() != 8 {
		t.Fatalf("pool has %d voices, want 8", pool.NumVoices())
	}
}

func TestPoolAssignsAndReleases(t *testing.T) {
	pool, _ := NewPool(48000, 4)
	pool.NoteOn(60, 100)
	pool.NoteOn(64, 100)
	if n := pool.ActiveVoices(); n != 2 {
		t.Fatalf("active voices %d, want 2", n)
	}
	pool.NoteOff(60)
	// Released voices stay active until the envelope decays.
	if n := pool.ActiveVoices(); n != 2 {
		t.Fatalf("note-off killed a voice instantly: %d active", n)
	}
	params := testVoiceParams()
	out := make([]float32, 512)
	for i := 0; i < 200; i++ {
		pool.Render(out, len(out), &params)
	}
	if n := pool.ActiveVoices(); n != 1 {
		t.Fatalf("after release decay, %d voices active, want 1", n)
	}
}

func TestPoolNoteOffUnknownNoteIsNoOp(t *testing.T) {
	pool, _ := NewPool(48000, 4)
	pool.NoteOn(60, 100)
	pool.NoteOff(61)
	if n := pool.ActiveVoices(); n != 1 {
		t.Fatalf("note-off for silent note changed voice count to %d", n)
	}
}

func TestPoolStealsWhenFull(t *testing.T) {
	pool, _ := NewPool(48000, 2)
	params := testVoiceParams()
	out := make([]float32, 256)

	pool.NoteOn(60, 100)
	pool.NoteOn(64, 100)
	pool.Render(out, len(out), &params)
	pool.NoteOff(60)
	pool.Render(out, len(out), &params)

	// Pool is full; the releasing voice (note 60) must be the victim.
	pool.NoteOn(67, 100)
	if n := pool.ActiveVoices(); n != 2 {
		t.Fatalf("active voices %d after steal, want 2", n)
	}
	notes := map[byte]bool{}
	for i := range pool.voices {
		if pool.voices[i].Active() {
			notes[pool.voices[i].Note()] = true
		}
	}
	if !notes[67] || !notes[64] || notes[60] {
		t.Fatalf("steal picked the wrong victim, sounding notes: %v", notes)
	}
}

func TestPoolStealsOldestOnLevelTie(t *testing.T) {
	pool, _ := NewPool(48000, 2)
	pool.NoteOn(60, 100)
	pool.NoteOn(64, 100)
	// No rendering: both voices are at level 0 in attack, so the tie breaks
	// by activation order and note 60 goes.
	pool.NoteOn(67, 100)
	for i := range pool.voices {
		if pool.voices[i].Active() && pool.voices[i].Note() == 60 {
			t.Fatal("steal took the newer voice instead of the oldest")
		}
	}
}

func TestPoolRetriggersSameNote(t *testing.T) {
	pool, _ := NewPool(48000, 4)
	pool.NoteOn(60, 100)
	pool.NoteOn(60, 100)
	if n := pool.ActiveVoices(); n != 1 {
		t.Fatalf("same note allocated %d voices, want 1", n)
	}
}

func TestPoolRenderBoundedAndFinite(t *testing.T) {
	pool, _ := NewPool(48000, 8)
	params := testVoiceParams()
	params.Resonance = 1
	params.Drive = 4
	for note := byte(48); note < 56; note++ {
		pool.NoteOn(note, 127)
	}
	out := make([]float32, 512)
	for block := 0; block < 100; block++ {
		pool.Render(out, len(out), &params)
		for i, v := range out {
			if math.IsNaN(float64(v)) || v < -2 || v > 2 {
				t.Fatalf("block %d sample %d out of bounds: %v", block, i, v)
			}
		}
	}
}

func TestPoolReleaseAll(t *testing.T) {
	pool, _ := NewPool(48000, 4)
	pool.NoteOn(60, 100)
	pool.NoteOn(64, 100)
	pool.NoteOn(67, 100)
	pool.ReleaseAll()
	params := testVoiceParams()
	out := make([]float32, 512)
	for i := 0; i < 200; i++ {
		pool.Render(out, len(out), &params)
	}
	if n := pool.ActiveVoices(); n != 0 {
		t.Fatalf("%d voices still active after ReleaseAll and decay", n)
	}
}
