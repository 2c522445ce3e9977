// Package oto plays the synthesizer through the system audio device using
// the oto library. The device pulls samples from the renderer through an
// io.Reader, so the render loop runs at the device's pace.
package oto

import (
	"fmt"

	"github.com/ebitengine/oto/v3"

	"github.com/SauersML/RustWave"
)

// Context wraps an oto audio context for a fixed sample rate.
type Context struct {
	ctx        *oto.Context
	sampleRate int
	players    []*oto.Player
}

// NewContext opens the system audio device at the given sample rate, stereo,
// 16-bit. It blocks until the device is ready.
func NewContext(sampleRate int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

// Play starts pulling audio from the renderer. The renderer's Render is
// called from oto's reader goroutine until the context is closed.
func (c *Context) Play(r rustwave.Renderer) error {
	if c.ctx == nil {
		return fmt.Errorf("oto context is closed")
	}
	player := c.ctx.NewPlayer(&readerSource{renderer: r})
	player.Play()
	c.players = append(c.players, player)
	return nil
}

// Close stops all players. The underlying oto context cannot be closed, so a
// Context should live for the whole process.
func (c *Context) Close() error {
	var firstErr error
	for _, p := range c.players {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("cannot close oto player: %w", err)
		}
	}
	c.players = nil
	return firstErr
}

// readerSource adapts a Renderer to the io.Reader oto pulls from. The scratch
// buffer grows to the device's read size on the first call and is reused
// after that.
type readerSource struct {
	renderer rustwave.Renderer
	scratch  rustwave.AudioBuffer
}

const bytesPerFrame = 4 // 2 channels x int16

func (s *readerSource) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if len(s.scratch) < frames {
		s.scratch = make(rustwave.AudioBuffer, frames)
	}
	buf := s.scratch[:frames]
	buf.Zero()
	s.renderer.Render(buf)

	for i, frame := range buf {
		l := sampleTo16Bit(frame[0])
		r := sampleTo16Bit(frame[1])
		p[i*4] = byte(l)
		p[i*4+1] = byte(l >> 8)
		p[i*4+2] = byte(r)
		p[i*4+3] = byte(r >> 8)
	}
	return frames * bytesPerFrame, nil
}

func sampleTo16Bit(v float32) int16 {
	if v < -1 {
		return -32767
	}
	if v > 1 {
		return 32767
	}
	return int16(v * 32767)
}
