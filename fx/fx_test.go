package fx

import (
	"math"
	"testing"
)

// impulseTrain fills stereo buffers with a decaying click pattern, enough
// signal to excite every delay line.
func impulseTrain(n int) ([]float32, []float32) {
	left := make([]float32, n)
	right := make([]float32, n)
	for i := 0; i < n; i += 480 {
		left[i] = 0.8
		right[i] = -0.8
	}
	return left, right
}

func assertFinite(t *testing.T, name string, bufs ...[]float32) {
	t.Helper()
	for _, buf := range bufs {
		for i, v := range buf {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("%s: non-finite sample at %d", name, i)
			}
			if v < -1 || v > 1 {
				t.Fatalf("%s: sample %d out of range: %v", name, i, v)
			}
		}
	}
}

func TestChorusOffPassesThrough(t *testing.T) {
	chorus, err := NewChorus(48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	left, right := impulseTrain(4800)
	wantL := append([]float32(nil), left...)
	wantR := append([]float32(nil), right...)
	chorus.Process(left, right)
	for i := range left {
		if left[i] != wantL[i] || right[i] != wantR[i] {
			t.Fatalf("off mode altered sample %d", i)
		}
	}
}

func TestChorusModesFinite(t *testing.T) {
	for mode := ChorusI; mode <= ChorusIV; mode++ {
		chorus, err := NewChorus(48000, 99)
		if err != nil {
			t.Fatal(err)
		}
		chorus.SetMode(mode)
		chorus.SetRate(0.5)
		chorus.SetDepth(0.5)
		left, right := impulseTrain(48000)
		chorus.Process(left, right)
		assertFinite(t, "chorus mode "+mode.String(), left, right)
	}
}

func TestChorusProducesStereoDifference(t *testing.T) {
	chorus, _ := NewChorus(48000, 7)
	chorus.SetMode(ChorusI)
	chorus.SetDepth(0.5)
	left := make([]float32, 48000)
	right := make([]float32, 48000)
	for i := range left {
		// A mono saw-ish ramp as input.
		left[i] = float32(i%100)/50 - 1
		right[i] = left[i]
	}
	chorus.Process(left, right)
	var diff float64
	for i := 24000; i < len(left); i++ {
		diff += math.Abs(float64(left[i] - right[i]))
	}
	if diff == 0 {
		t.Fatal("chorus left identical mono input unchanged between channels")
	}
}

func TestDelayBypassIdentity(t *testing.T) {
	delay, err := NewDelay(48000)
	if err != nil {
		t.Fatal(err)
	}
	delay.SetBypass(true)
	left, right := impulseTrain(4800)
	wantL := append([]float32(nil), left...)
	chorusedCopy := append([]float32(nil), right...)
	delay.Process(left, right)
	for i := range left {
		if left[i] != wantL[i] || right[i] != chorusedCopy[i] {
			t.Fatalf("bypassed delay altered sample %d", i)
		}
	}
}

func TestDelayEchoAppearsAtSetTime(t *testing.T) {
	const sr = 48000
	delay, _ := NewDelay(sr)
	delay.SetTime(0.1)
	delay.SetMix(1)
	delay.SetFeedback(0)
	delay.SetDamp(0)

	n := sr / 2
	left := make([]float32, n)
	right := make([]float32, n)
	left[0], right[0] = 0.5, 0.5
	delay.Process(left, right)

	echoAt := int(0.1 * sr)
	if left[echoAt] == 0 {
		t.Fatalf("no echo at sample %d", echoAt)
	}
	for i := 1; i < echoAt-1; i++ {
		if left[i] != 0 {
			t.Fatalf("unexpected signal before the echo at sample %d: %v", i, left[i])
		}
	}
}

func TestDelayFeedbackDecays(t *testing.T) {
	const sr = 48000
	delay, _ := NewDelay(sr)
	delay.SetTime(0.05)
	delay.SetFeedback(0.95)
	delay.SetMix(1)

	left := make([]float32, sr)
	right := make([]float32, sr)
	left[0], right[0] = 1, 1
	// Run for ten seconds of silence after the impulse; the loop must decay.
	var peak float32
	for block := 0; block < 10; block++ {
		delay.Process(left, right)
		peak = 0
		for _, v := range left {
			if v > peak {
				peak = v
			} else if -v > peak {
				peak = -v
			}
		}
		zero(left)
		zero(right)
	}
	if peak > 0.1 {
		t.Fatalf("feedback loop still ringing at %v after 10 s", peak)
	}
}

func TestReverbBypassIdentity(t *testing.T) {
	reverb, err := NewReverb(48000)
	if err != nil {
		t.Fatal(err)
	}
	reverb.SetBypass(true)
	left, right := impulseTrain(4800)
	wantL := append([]float32(nil), left...)
	reverb.Process(left, right)
	for i := range left {
		if left[i] != wantL[i] {
			t.Fatalf("bypassed reverb altered sample %d", i)
		}
	}
}

func TestReverbTailDecays(t *testing.T) {
	const sr = 48000
	reverb, _ := NewReverb(sr)
	reverb.SetSize(0.9)
	reverb.SetDamp(0.2)
	reverb.SetMix(1)

	left := make([]float32, sr)
	right := make([]float32, sr)
	left[0], right[0] = 1, 1
	reverb.Process(left, right)
	assertFinite(t, "reverb first second", left, right)

	var early float32
	for _, v := range left[:sr/2] {
		if v > early {
			early = v
		} else if -v > early {
			early = -v
		}
	}
	if early == 0 {
		t.Fatal("reverb produced no tail")
	}

	// After twenty silent seconds the tail must be essentially gone.
	var late float32
	for block := 0; block < 20; block++ {
		zero(left)
		zero(right)
		reverb.Process(left, right)
	}
	for _, v := range left {
		if v > late {
			late = v
		} else if -v > late {
			late = -v
		}
	}
	if late > early/10 {
		t.Fatalf("reverb tail not decaying: early %v late %v", early, late)
	}
}

func TestReverbTuningScalesWithSampleRate(t *testing.T) {
	r44, _ := NewReverb(44100)
	r96, _ := NewReverb(96000)
	if len(r44.combL[0].buffer) != combTuning[0] {
		t.Fatalf("44.1 kHz comb length %d, want %d", len(r44.combL[0].buffer), combTuning[0])
	}
	want := int(float32(combTuning[0]) * 96000 / 44100)
	if len(r96.combL[0].buffer) != want {
		t.Fatalf("96 kHz comb length %d, want %d", len(r96.combL[0].buffer), want)
	}
}
