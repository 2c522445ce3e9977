package rustwave

import "math"

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right.
	AudioBuffer [][2]float32

	// Renderer produces one buffer of audio per call. Render is total: it
	// always fills the whole buffer with finite samples in [-1, 1] and never
	// fails mid-buffer. All error conditions are handled at construction time
	// or surfaced through diagnostic counters.
	Renderer interface {
		Render(buffer AudioBuffer)
	}

	// AudioOutput is something where an AudioBuffer can be written to, e.g. a
	// player or a file.
	AudioOutput interface {
		WriteAudio(buffer AudioBuffer) error
		Close() error
	}

	// AudioContext represents the low-level audio drivers; it pulls buffers
	// from a Renderer at the device cadence once started.
	AudioContext interface {
		Play(renderer Renderer) error
		Close() error
	}
)

// Zero fills the buffer with silence.
func (buffer AudioBuffer) Zero() {
	for i := range buffer {
		buffer[i] = [2]float32{}
	}
}

// NoteToFrequency converts a MIDI note number to a frequency in Hz, with A4
// (note 69) tuned to 440 Hz.
func NoteToFrequency(note byte) float32 {
	return float32(440 * math.Exp2((float64(note)-69)/12))
}
