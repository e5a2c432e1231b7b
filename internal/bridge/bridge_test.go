// internal/bridge/bridge_test.go
package bridge

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEncodeSnapshot(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got, err := encodeSnapshot(100, []uint16{1, 65535}, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"start":100,"values":[1,65535],"at":"2024-05-01T12:00:00Z"}`
	if string(got) != want {
		t.Fatalf("payload = %s, want %s", got, want)
	}
}

func TestEncodeSnapshotEmpty(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got, err := encodeSnapshot(0, nil, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"start":0,"values":null,"at":"2024-05-01T12:00:00Z"}`
	if string(got) != want {
		t.Fatalf("payload = %s, want %s", got, want)
	}
}

func TestHandleDropsWhileDisconnected(t *testing.T) {
	p := New("tcp://127.0.0.1:1", "workbench/snapshot", zerolog.Nop())
	// Never connected: the snapshot must be dropped without blocking on
	// the absent broker.
	done := make(chan struct{})
	go func() {
		p.Handle(0, []uint16{1, 2, 3})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Handle blocked while disconnected")
	}
}
