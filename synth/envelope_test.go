package synth

import "testing"

func TestEnvelopeStageTiming(t *testing.T) {
	const sr = 48000
	env := NewEnvelope(sr)
	env.Configure(0.01, 0.05, 0.7, 0.2)
	env.TriggerOn()

	// Attack should hand over to decay within ~10 ms, with some slack for
	// the -60 dB completion band.
	samples := 0
	for env.Stage() == EnvAttack {
		env.Next()
		samples++
		if samples > int(0.012*sr) {
			t.Fatalf("attack still running after %d samples", samples)
		}
	}
	if env.Stage() != EnvDecay {
		t.Fatalf("expected decay after attack, got %v", env.Stage())
	}

	samples = 0
	for env.Stage() == EnvDecay {
		env.Next()
		samples++
		if samples > int(0.06*sr) {
			t.Fatalf("decay still running after %d samples", samples)
		}
	}
	if env.Stage() != EnvSustain {
		t.Fatalf("expected sustain after decay, got %v", env.Stage())
	}
	if lvl := env.Level(); lvl < 0.69 || lvl > 0.71 {
		t.Fatalf("sustain level %v, want ~0.7", lvl)
	}

	env.TriggerOff()
	samples = 0
	for env.Active() {
		env.Next()
		samples++
		if samples > int(0.2*sr) {
			t.Fatalf("release still audible after %d samples", samples)
		}
	}
	if env.Level() != 0 {
		t.Fatalf("idle level %v, want 0", env.Level())
	}
}

func TestEnvelopeContinuousOnRelease(t *testing.T) {
	env := NewEnvelope(48000)
	env.Configure(0.1, 0.1, 0.5, 0.1)
	env.TriggerOn()
	for i := 0; i < 1000; i++ {
		env.Next()
	}
	before := env.Level()
	env.TriggerOff()
	after := env.Next()
	if diff := before - after; diff < 0 || diff > 0.01 {
		t.Fatalf("release jumped from %v to %v", before, after)
	}
}

func TestEnvelopeRetriggerFromCurrentLevel(t *testing.T) {
	env := NewEnvelope(48000)
	env.Configure(0.05, 0.1, 0.8, 0.1)
	env.TriggerOn()
	for i := 0; i < 2000; i++ {
		env.Next()
	}
	mid := env.Level()
	if mid <= 0.1 {
		t.Fatalf("level %v too low for a meaningful retrigger test", mid)
	}
	env.TriggerOn()
	after := env.Next()
	if after < mid {
		t.Fatalf("retrigger dropped level from %v to %v", mid, after)
	}
	if after > mid+0.01 {
		t.Fatalf("retrigger jumped level from %v to %v", mid, after)
	}
}

func TestEnvelopeNoteOffDuringAttack(t *testing.T) {
	env := NewEnvelope(48000)
	env.Configure(0.5, 0.1, 0.8, 0.05)
	env.TriggerOn()
	for i := 0; i < 100; i++ {
		env.Next()
	}
	if env.Stage() != EnvAttack {
		t.Fatalf("expected to still be in attack, got %v", env.Stage())
	}
	env.TriggerOff()
	if env.Stage() != EnvRelease {
		t.Fatalf("note-off in attack should release, got %v", env.Stage())
	}
	prev := env.Level()
	for env.Active() {
		cur := env.Next()
		if cur > prev {
			t.Fatalf("release level rose from %v to %v", prev, cur)
		}
		prev = cur
	}
}

func TestEnvelopeIdleTriggerOffNoOp(t *testing.T) {
	env := NewEnvelope(48000)
	env.TriggerOff()
	if env.Stage() != EnvIdle {
		t.Fatalf("note-off on idle envelope changed stage to %v", env.Stage())
	}
	if v := env.Next(); v != 0 {
		t.Fatalf("idle envelope output %v, want 0", v)
	}
}
