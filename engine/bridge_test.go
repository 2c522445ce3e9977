package engine

import (
	"testing"

	"github.com/SauersML/RustWave"
)

func TestNewBridgeValidation(t *testing.T) {
	if _, err := NewBridge(0); err == nil {
		t.Fatal("zero capacity accepted")
	}
	if _, err := NewBridge(-5); err == nil {
		t.Fatal("negative capacity accepted")
	}
	if _, err := NewBridge(16); err != nil {
		t.Fatalf("valid capacity rejected: %v", err)
	}
}

func TestBridgePreservesPublishOrder(t *testing.T) {
	bridge, _ := NewBridge(16)
	bridge.PublishParam(rustwave.ParamFilterCutoff, 1000)
	bridge.PublishNoteOn(60, 100)
	bridge.PublishParam(rustwave.ParamFilterCutoff, 2000)
	bridge.PublishNoteOff(60)

	wantKinds := []msgKind{msgParam, msgNoteOn, msgParam, msgNoteOff}
	for i, want := range wantKinds {
		m, ok := bridge.tryRecv()
		if !ok {
			t.Fatalf("queue empty at message %d", i)
		}
		if m.kind != want {
			t.Fatalf("message %d kind %v, want %v", i, m.kind, want)
		}
	}
	if _, ok := bridge.tryRecv(); ok {
		t.Fatal("queue should be empty")
	}
}

func TestBridgeDropsWhenFullWithoutBlocking(t *testing.T) {
	bridge, _ := NewBridge(2)
	if !bridge.PublishNoteOn(60, 100) || !bridge.PublishNoteOn(64, 100) {
		t.Fatal("publishes within capacity failed")
	}
	// The queue is full now; these must return immediately.
	if bridge.PublishNoteOn(67, 100) {
		t.Fatal("publish to full queue reported success")
	}
	if bridge.PublishParam(rustwave.ParamMasterVolume, 0.5) {
		t.Fatal("param publish to full queue reported success")
	}
	if n := bridge.DroppedNotes(); n != 1 {
		t.Fatalf("dropped notes %d, want 1", n)
	}
	if n := bridge.DroppedParams(); n != 1 {
		t.Fatalf("dropped params %d, want 1", n)
	}
	// Earlier messages survive intact.
	m, ok := bridge.tryRecv()
	if !ok || m.note != 60 {
		t.Fatalf("first queued message lost, got %+v ok=%v", m, ok)
	}
}
