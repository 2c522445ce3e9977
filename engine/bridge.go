// Package engine owns the render loop: it drains control messages, advances
// the voice pool, runs the effects chain and meters the output. Everything on
// the render path is allocation-free and never blocks.
package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/SauersML/RustWave"
)

// msgKind tags the payload of a bridge message.
type msgKind uint8

const (
	msgParam msgKind = iota
	msgNoteOn
	msgNoteOff
	msgAllNotesOff
)

// message is one control event. It is a plain value so sending never
// allocates and the render side never retains control-side memory.
type message struct {
	kind     msgKind
	param    rustwave.Param
	value    float32
	note     byte
	velocity byte
}

// Bridge carries control events from any number of producers to the single
// render goroutine. Publishing never blocks: when the queue is full the event
// is dropped and counted, because stalling the audio callback is worse than
// losing a knob tick. A single queue keeps parameter changes and notes in the
// order they were published.
type Bridge struct {
	queue chan message

	droppedParams atomic.Uint64
	droppedNotes  atomic.Uint64
}

// NewBridge creates a bridge whose queue holds capacity events.
func NewBridge(capacity int) (*Bridge, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("bridge: capacity %d must be positive", capacity)
	}
	return &Bridge{queue: make(chan message, capacity)}, nil
}

// PublishParam queues a parameter change. Returns false if the queue was full
// and the event was dropped.
func (b *Bridge) PublishParam(p rustwave.Param, value float32) bool {
	ok := b.trySend(message{kind: msgParam, param: p, value: value})
	if !ok {
		b.droppedParams.Add(1)
	}
	return ok
}

// PublishNoteOn queues a note-on. Returns false if the event was dropped.
func (b *Bridge) PublishNoteOn(note, velocity byte) bool {
	ok := b.trySend(message{kind: msgNoteOn, note: note, velocity: velocity})
	if !ok {
		b.droppedNotes.Add(1)
	}
	return ok
}

// PublishNoteOff queues a note-off. Returns false if the event was dropped.
func (b *Bridge) PublishNoteOff(note byte) bool {
	ok := b.trySend(message{kind: msgNoteOff, note: note})
	if !ok {
		b.droppedNotes.Add(1)
	}
	return ok
}

// PublishAllNotesOff queues a release of every sounding voice.
func (b *Bridge) PublishAllNotesOff() bool {
	ok := b.trySend(message{kind: msgAllNotesOff})
	if !ok {
		b.droppedNotes.Add(1)
	}
	return ok
}

func (b *Bridge) trySend(m message) bool {
	select {
	case b.queue <- m:
		return true
	default:
		return false
	}
}

// tryRecv is the render-side drain; it never blocks.
func (b *Bridge) tryRecv() (message, bool) {
	select {
	case m := <-b.queue:
		return m, true
	default:
		return message{}, false
	}
}

// DroppedParams returns how many parameter events have been dropped since
// construction.
func (b *Bridge) DroppedParams() uint64 { return b.droppedParams.Load() }

// DroppedNotes returns how many note events have been dropped since
// construction.
func (b *Bridge) DroppedNotes() uint64 { return b.droppedNotes.Load() }
