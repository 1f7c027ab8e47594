package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func newHeartbeatRouter(interval, deadline time.Duration) (*Router, *Registry) {
	reg := NewRegistry()
	r := NewRouter(reg, "K")
	r.heartbeatInterval = interval
	r.heartbeatDeadline = deadline
	return r, reg
}

// drainPackets collects everything queued on s within the window, decoded.
func drainPackets(s *Session, window time.Duration) []map[string]any {
	var out []map[string]any
	deadline := time.After(window)
	for {
		select {
		case m, ok := <-s.SendChan():
			if !ok {
				return out
			}
			var decoded map[string]any
			if json.Unmarshal(m.Data, &decoded) == nil {
				out = append(out, decoded)
			}
		case <-deadline:
			return out
		}
	}
}

func TestHeartbeatTimeoutEvictsDevice(t *testing.T) {
	r, reg := newHeartbeatRouter(10*time.Millisecond, 50*time.Millisecond)
	d := connectDevice(t, r, "D1")
	c := pairClient(t, r, "D1")

	// Go silent; wait well past the deadline.
	packets := drainPackets(c, 300*time.Millisecond)

	if !d.IsClosed() {
		t.Error("timed-out bobbycar session not closed")
	}
	if _, ok := reg.Device("D1"); ok {
		t.Error("timed-out record still registered")
	}

	var pings, disconnects int
	for _, p := range packets {
		switch p["type"] {
		case "bobbycar-ping":
			pings++
		case "disconnect":
			disconnects++
			if p["code"] != float64(1000) || p["reason"] != "Bobbycar timed out" {
				t.Errorf("unexpected disconnect packet: %v", p)
			}
		}
	}
	if pings == 0 {
		t.Error("expected liveness-latency pings before the timeout")
	}
	if disconnects != 1 {
		t.Errorf("expected exactly one disconnect notification, got %d", disconnects)
	}
}

func TestHeartbeatKeepsLiveDeviceRegistered(t *testing.T) {
	r, reg := newHeartbeatRouter(10*time.Millisecond, 60*time.Millisecond)
	d := connectDevice(t, r, "D1")
	defer d.StopHeartbeat()

	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		r.HandleText(d, []byte(`{"type":"heartbeat"}`))
	}

	if _, ok := reg.Device("D1"); !ok {
		t.Error("live bobbycar was evicted")
	}
	if d.IsClosed() {
		t.Error("live bobbycar session was closed")
	}
}

func TestHeartbeatTicksCarryLatency(t *testing.T) {
	r, _ := newHeartbeatRouter(10*time.Millisecond, time.Hour)
	d := connectDevice(t, r, "D1")
	defer d.StopHeartbeat()
	c := pairClient(t, r, "D1")

	packets := drainPackets(c, 100*time.Millisecond)
	if len(packets) == 0 {
		t.Fatal("no ping packets delivered")
	}
	for _, p := range packets {
		if p["type"] != "bobbycar-ping" {
			continue
		}
		if _, ok := p["time"].(float64); !ok {
			t.Fatalf("ping packet missing time field: %v", p)
		}
	}
}

func TestStopHeartbeatCancelsSupervisor(t *testing.T) {
	r, reg := newHeartbeatRouter(10*time.Millisecond, 30*time.Millisecond)
	d := connectDevice(t, r, "D1")
	c := pairClient(t, r, "D1")

	// Normal disconnect path: supervisor cancelled before the deadline.
	d.StopHeartbeat()
	time.Sleep(100 * time.Millisecond)

	if _, ok := reg.Device("D1"); !ok {
		t.Error("cancelled supervisor still evicted the record")
	}
	for _, p := range drainPackets(c, 20*time.Millisecond) {
		if p["type"] == "disconnect" {
			t.Error("cancelled supervisor sent a disconnect")
		}
	}
}
