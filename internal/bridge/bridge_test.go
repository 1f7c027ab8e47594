package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/hub"
)

type fakeSource struct {
	ch chan []byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan []byte, 16)}
}

func (s *fakeSource) Messages() <-chan []byte { return s.ch }
func (s *fakeSource) Close() error            { close(s.ch); return nil }

func pairedClient(reg *hub.Registry, name string) *hub.Session {
	s := hub.NewSession(nil, "10.0.0.2", "1001")
	s.PromoteClient(name)
	reg.AddClient(s)
	return s
}

func recvJSON(t *testing.T, s *hub.Session, timeout time.Duration) map[string]any {
	t.Helper()
	select {
	case m := <-s.SendChan():
		var decoded map[string]any
		if err := json.Unmarshal(m.Data, &decoded); err != nil {
			t.Fatalf("queued frame is not JSON: %v", err)
		}
		return decoded
	case <-time.After(timeout):
		t.Fatal("expected a queued frame")
		return nil
	}
}

func expectNothing(t *testing.T, s *hub.Session) {
	t.Helper()
	select {
	case m := <-s.SendChan():
		t.Fatalf("expected no queued frame, got %s", m.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBridgeDeliversToMatchingClients(t *testing.T) {
	reg := hub.NewRegistry()
	src := newFakeSource()
	adapter := New(src, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go adapter.Run(ctx)

	target1 := pairedClient(reg, "D1")
	target2 := pairedClient(reg, "D1")
	other := pairedClient(reg, "D2")

	src.ch <- []byte(`{"username":"D1","message":{"lat":48.2,"lon":16.3}}`)

	for i, c := range []*hub.Session{target1, target2} {
		packet := recvJSON(t, c, time.Second)
		if packet["type"] != "udpmessage" {
			t.Errorf("client %d: unexpected type %v", i, packet["type"])
		}
		data, ok := packet["data"].(map[string]any)
		if !ok || data["lat"] != 48.2 {
			t.Errorf("client %d: payload mangled: %v", i, packet["data"])
		}
	}
	expectNothing(t, other)
}

func TestBridgeDropsMalformedPayloads(t *testing.T) {
	reg := hub.NewRegistry()
	src := newFakeSource()
	adapter := New(src, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go adapter.Run(ctx)

	c := pairedClient(reg, "D1")

	src.ch <- []byte(`not json at all`)
	src.ch <- []byte(`{"message":"no username"}`)
	src.ch <- []byte(`{"username":"","message":"empty"}`)
	expectNothing(t, c)

	// The feed keeps working after bad entries.
	src.ch <- []byte(`{"username":"D1","message":"hello"}`)
	packet := recvJSON(t, c, time.Second)
	if packet["data"] != "hello" {
		t.Errorf("unexpected payload: %v", packet)
	}
}

func TestBridgeStopsWhenSourceCloses(t *testing.T) {
	reg := hub.NewRegistry()
	src := newFakeSource()
	adapter := New(src, reg)

	done := make(chan struct{})
	go func() {
		adapter.Run(context.Background())
		close(done)
	}()

	src.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("adapter did not stop after source close")
	}
}
