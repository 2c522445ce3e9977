package fx

import (
	"fmt"

	"github.com/SauersML/RustWave"
)

// Chain is the master effects chain in its fixed order: chorus, then delay,
// then reverb. The order is part of the sound; it is not configurable.
type Chain struct {
	chorus *Chorus
	delay  *Delay
	reverb *Reverb
}

// NewChain builds the chain for the given sample rate. seed spreads the
// chorus modulator phases.
func NewChain(sampleRate float32, seed uint32) (*Chain, error) {
	chorus, err := NewChorus(sampleRate, seed)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	delay, err := NewDelay(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	reverb, err := NewReverb(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	return &Chain{chorus: chorus, delay: delay, reverb: reverb}, nil
}

// Apply pushes the effect parameters from a snapshot into every stage. Called
// once per buffer, before Process.
func (c *Chain) Apply(snap *rustwave.Snapshot) {
	c.chorus.SetMode(ChorusMode(snap.Value(rustwave.ParamChorusMode)))
	c.chorus.SetRate(snap.Value(rustwave.ParamChorusRate))
	c.chorus.SetDepth(snap.Value(rustwave.ParamChorusDepth))

	c.delay.SetTime(snap.Value(rustwave.ParamDelayTime))
	c.delay.SetFeedback(snap.Value(rustwave.ParamDelayFeedback))
	c.delay.SetDamp(snap.Value(rustwave.ParamDelayDamp))
	c.delay.SetMix(snap.Value(rustwave.ParamDelayMix))
	c.delay.SetBypass(snap.Value(rustwave.ParamDelayBypass) >= 0.5)

	c.reverb.SetSize(snap.Value(rustwave.ParamReverbSize))
	c.reverb.SetDamp(snap.Value(rustwave.ParamReverbDamp))
	c.reverb.SetMix(snap.Value(rustwave.ParamReverbMix))
	c.reverb.SetBypass(snap.Value(rustwave.ParamReverbBypass) >= 0.5)
}

// Process runs the whole chain over stereo buffers in place.
func (c *Chain) Process(left, right []float32) {
	c.chorus.Process(left, right)
	c.delay.Process(left, right)
	c.reverb.Process(left, right)
}

// Chorus exposes the chorus stage, mainly for tests.
func (c *Chain) Chorus() *Chorus { return c.chorus }

// Delay exposes the delay stage.
func (c *Chain) Delay() *Delay { return c.delay }

// Reverb exposes the reverb stage.
func (c *Chain) Reverb() *Reverb { return c.reverb }
