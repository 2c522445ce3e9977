package engine

import (
	"math"
	"sync/atomic"

	"github.com/viterin/vek/vek32"

	"github.com/SauersML/RustWave"
)

// Meter tracks peak and RMS levels of the rendered output. The render
// goroutine writes, anyone may read; the levels are published through atomic
// float bits so a UI or logger can poll without locking.
type Meter struct {
	flat []float32 // interleaved scratch
	sq   []float32 // squared scratch

	peak atomic.Uint32
	rms  atomic.Uint32
}

func newMeter(maxFrames int) *Meter {
	return &Meter{
		flat: make([]float32, maxFrames*2),
		sq:   make([]float32, maxFrames*2),
	}
}

func (m *Meter) update(buffer rustwave.AudioBuffer) {
	n := len(buffer) * 2
	if n == 0 || n > len(m.flat) {
		return
	}
	flat := m.flat[:n]
	for i, frame := range buffer {
		flat[2*i] = frame[0]
		flat[2*i+1] = frame[1]
	}
	sq := m.sq[:n]
	vek32.Abs_Into(sq, flat)
	peak := vek32.Max(sq)
	vek32.Mul_Into(sq, flat, flat)
	rms := float32(math.Sqrt(float64(vek32.Mean(sq))))

	m.peak.Store(math.Float32bits(peak))
	m.rms.Store(math.Float32bits(rms))
}

// Peak returns the absolute peak of the last rendered buffer.
func (m *Meter) Peak() float32 {
	return math.Float32frombits(m.peak.Load())
}

// RMS returns the root mean square level of the last rendered buffer.
func (m *Meter) RMS() float32 {
	return math.Float32frombits(m.rms.Load())
}
