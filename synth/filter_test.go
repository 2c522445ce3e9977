package synth

import (
	"math"
	"testing"
)

func TestLadderStableAtFullResonance(t *testing.T) {
	const sr = 48000
	filter := NewLadder(sr)
	filter.SetResonance(1)
	filter.SetDrive(4)
	osc := NewOscillator(sr, 7)
	in := OscInput{Frequency: 110, Waveform: Saw, SyncFrac: -1}
	cutoff := float32(20)
	for i := 0; i < 100000; i++ {
		// Sweep the cutoff through the whole range while self-oscillating.
		cutoff *= 1.0001
		if cutoff > sr*0.45 {
			cutoff = 20
		}
		filter.SetCutoff(cutoff)
		v := filter.Next(osc.Next(in))
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite output at sample %d", i)
		}
	}
	if n := filter.Faults(); n > 0 {
		t.Fatalf("filter needed %d state resets during sweep", n)
	}
}

func TestLadderLowpassAttenuatesHighFrequencies(t *testing.T) {
	const sr = 48000
	filter := NewLadder(sr)
	filter.SetCutoff(200)
	filter.SetMode(FilterLowPass)
	osc := NewOscillator(sr, 3)
	in := OscInput{Frequency: 8000, Waveform: Sine, SyncFrac: -1}
	// Skip the transient, then measure.
	for i := 0; i < 4800; i++ {
		filter.Next(osc.Next(in))
	}
	var peak float32
	for i := 0; i < 4800; i++ {
		v := filter.Next(osc.Next(in))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	// Four poles at ~5 octaves above cutoff: the tone should be gone.
	if peak > 0.01 {
		t.Fatalf("8 kHz tone leaked through 200 Hz lowpass at %v", peak)
	}
}

func TestLadderHighpassBlocksDC(t *testing.T) {
	filter := NewLadder(48000)
	filter.SetCutoff(1000)
	filter.SetMode(FilterHighPass)
	var out float32
	for i := 0; i < 48000; i++ {
		out = filter.Next(1)
	}
	if out > 0.01 || out < -0.01 {
		t.Fatalf("highpass passed DC at level %v", out)
	}
}

func TestLadderDecimationAveragesSubsteps(t *testing.T) {
	a := NewLadder(48000)
	b := NewLadder(48000)
	a.SetResonance(0.5)
	b.SetResonance(0.5)
	got := a.Next(0.25)
	b.step(0.25)
	want := b.tap()
	b.step(0.25)
	want = (want + b.tap()) * 0.5
	if got != want {
		t.Fatalf("decimated output %v, want substep average %v", got, want)
	}
	if got == b.tap() {
		t.Fatal("decimation took only the final substep")
	}
}

func TestLadderCutoffClamped(t *testing.T) {
	filter := NewLadder(48000)
	filter.SetCutoff(-500)
	filter.SetCutoff(1e9)
	for i := 0; i < 1000; i++ {
		if v := filter.Next(0.5); math.IsNaN(float64(v)) {
			t.Fatalf("NaN after extreme cutoff settings at sample %d", i)
		}
	}
}

func TestLadderRecoversFromNonFiniteInput(t *testing.T) {
	filter := NewLadder(48000)
	filter.SetCutoff(2000)
	nan := float32(math.NaN())
	if v := filter.Next(nan); v != 0 {
		t.Fatalf("non-finite input produced %v, want 0", v)
	}
	if filter.Faults() == 0 {
		t.Fatal("fault counter did not advance")
	}
	for i := 0; i < 100; i++ {
		v := filter.Next(0.5)
		if math.IsNaN(float64(v)) {
			t.Fatalf("filter did not recover at sample %d", i)
		}
	}
}
