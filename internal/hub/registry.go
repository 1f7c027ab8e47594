package hub

import (
	"sync"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/model"
)

// Device is the registry record for one connected bobbycar.
type Device struct {
	ID      string
	Name    string
	Res     string
	Pass    string
	IP      string
	Port    string
	Session *Session
}

// Info returns the device's public projection.
func (d *Device) Info() model.DeviceInfo {
	return model.DeviceInfo{Name: d.Name, IP: d.IP, Res: d.Res}
}

// Registry holds the live bobbycar records and the set of paired client
// sessions. One lock guards both tables; mutations are small and infrequent
// compared to message volume.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	clients map[*Session]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Device),
		clients: make(map[*Session]bool),
	}
}

// RegisterDevice records d under its name, replacing any existing record.
// The replaced record, if any, is returned; its connection is not closed but
// is no longer addressable.
func (r *Registry) RegisterDevice(d *Device) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.devices[d.Name]
	r.devices[d.Name] = d
	return old
}

// RemoveDevice deletes the record for name, but only if it still belongs to
// the given session ID. A stale connection of a replaced bobbycar must not
// evict its successor.
func (r *Registry) RemoveDevice(name, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	if !ok || d.ID != sessionID {
		return false
	}
	delete(r.devices, name)
	return true
}

// Device returns the live record for name.
func (r *Registry) Device(name string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[name]
	return d, ok
}

// Devices returns a snapshot of all live records.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// DeviceCount returns the number of live records.
func (r *Registry) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// AddClient records a paired client session.
func (r *Registry) AddClient(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[s] = true
}

// RemoveClient drops a client session.
func (r *Registry) RemoveClient(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, s)
}

// ClientsFor returns a snapshot of the client sessions bound to the given
// bobbycar name.
func (r *Registry) ClientsFor(name string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for s := range r.clients {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

// ClientCount returns the number of paired client sessions.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes every registered session and empties both tables.
func (r *Registry) Close() {
	r.mu.Lock()
	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	clients := make([]*Session, 0, len(r.clients))
	for s := range r.clients {
		clients = append(clients, s)
	}
	r.devices = make(map[string]*Device)
	r.clients = make(map[*Session]bool)
	r.mu.Unlock()

	for _, d := range devices {
		d.Session.StopHeartbeat()
		d.Session.Close()
	}
	for _, s := range clients {
		s.Close()
	}
}
