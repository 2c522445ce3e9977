// Package midiin connects a hardware MIDI input to the engine bridge using
// the rtmidi driver. Incoming messages are translated to bridge events on the
// driver's callback goroutine; nothing here ever blocks the render loop.
package midiin

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/SauersML/RustWave"
	"github.com/SauersML/RustWave/engine"
)

// Controller numbers the synth responds to.
const (
	ccModWheel    = 1
	ccResonance   = 71
	ccCutoff      = 74
	ccAllNotesOff = 123
)

// Context owns the MIDI driver and at most one open input device.
type Context struct {
	driver *rtmididrv.Driver
	in     drivers.In
	stop   func()
	bridge *engine.Bridge
}

// NewContext opens the rtmidi driver and targets the given bridge.
func NewContext(bridge *engine.Bridge) (*Context, error) {
	if bridge == nil {
		return nil, errors.New("midiin: nil bridge")
	}
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiin: cannot open driver: %w", err)
	}
	return &Context{driver: driver, bridge: bridge}, nil
}

// InputNames lists the available input device names.
func (c *Context) InputNames() []string {
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}

// OpenByPrefix opens the first input whose name starts with namePrefix. An
// empty prefix opens the first available input. Opening a second device
// closes the first.
func (c *Context) OpenByPrefix(namePrefix string) error {
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("midiin: cannot list inputs: %w", err)
	}
	for _, in := range ins {
		if strings.HasPrefix(in.String(), namePrefix) {
			return c.open(in)
		}
	}
	return fmt.Errorf("midiin: no input matching %q", namePrefix)
}

func (c *Context) open(in drivers.In) error {
	c.closeInput()
	if err := in.Open(); err != nil {
		return fmt.Errorf("midiin: opening %s failed: %w", in, err)
	}
	stop, err := midi.ListenTo(in, c.handleMessage)
	if err != nil {
		in.Close()
		return fmt.Errorf("midiin: listening to %s failed: %w", in, err)
	}
	c.in = in
	c.stop = stop
	return nil
}

// DeviceOpen reports whether an input is currently open.
func (c *Context) DeviceOpen() bool {
	return c.in != nil && c.in.IsOpen()
}

// Close stops listening and shuts the driver down.
func (c *Context) Close() {
	c.closeInput()
	c.driver.Close()
}

func (c *Context) closeInput() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.in != nil && c.in.IsOpen() {
		c.in.Close()
	}
	c.in = nil
}

// handleMessage runs on the driver's callback goroutine. Every branch ends in
// a non-blocking publish; a full bridge drops the event and counts it.
func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity, controller, value uint8
	switch {
	// GetNoteStart/GetNoteEnd fold the velocity-0 NoteOn convention into the
	// off path, so running-status note-offs release their voice.
	case msg.GetNoteStart(&channel, &key, &velocity):
		c.bridge.PublishNoteOn(key, velocity)
	case msg.GetNoteEnd(&channel, &key):
		c.bridge.PublishNoteOff(key)
	case msg.GetControlChange(&channel, &controller, &value):
		c.handleCC(controller, value)
	}
}

func (c *Context) handleCC(controller, value uint8) {
	norm := float32(value) / 127
	switch controller {
	case ccCutoff:
		c.bridge.PublishParam(rustwave.ParamFilterCutoff, ccToCutoff(norm))
	case ccResonance:
		c.bridge.PublishParam(rustwave.ParamFilterResonance, norm)
	case ccModWheel:
		// Mod wheel adds vibrato: up to a whole tone of LFO pitch depth.
		c.bridge.PublishParam(rustwave.ParamLFOPitchDepth, norm*2)
	case ccAllNotesOff:
		c.bridge.PublishAllNotesOff()
	}
}

// ccToCutoff maps the controller exponentially over the cutoff range, so the
// knob feels even across the keyboard rather than cramming everything below
// 1 kHz into the last few degrees.
func ccToCutoff(norm float32) float32 {
	r := rustwave.ParamFilterCutoff.Range()
	ratio := float64(r.Max / r.Min)
	return r.Min * float32(math.Pow(ratio, float64(norm)))
}
