package hub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/display"
	"github.com/bobbycar-reinvented/bobby-websocket/internal/model"
)

const (
	// minFrameLen is the shortest textual frame worth looking at; anything
	// shorter is protocol noise.
	minFrameLen = 5

	defaultHeartbeatInterval = 500 * time.Millisecond
	defaultHeartbeatDeadline = 5 * time.Second
)

// Router decodes inbound frames, validates them per message kind and
// dispatches them through the registry.
type Router struct {
	registry *Registry
	authKey  string

	heartbeatInterval time.Duration
	heartbeatDeadline time.Duration
}

// NewRouter creates a router admitting bobbycars that present authKey.
func NewRouter(registry *Registry, authKey string) *Router {
	return &Router{
		registry:          registry,
		authKey:           authKey,
		heartbeatInterval: defaultHeartbeatInterval,
		heartbeatDeadline: defaultHeartbeatDeadline,
	}
}

// HandleBinary routes a binary frame. Bobbycars stream display buffers to
// their clients verbatim; clients may not send binary frames at all.
func (r *Router) HandleBinary(s *Session, data []byte) {
	switch s.Role() {
	case RoleDevice:
		for _, c := range r.registry.ClientsFor(s.Name()) {
			c.SendBinary(data)
		}
	case RoleClient:
		r.sendError(s, model.TypeWarning, "Clients are not allowed to send binary messages")
	}
}

// HandleText routes a textual frame.
func (r *Router) HandleText(s *Session, data []byte) {
	if len(data) < minFrameLen {
		return
	}

	msg := string(data)
	if msg[0] != '{' {
		// Legacy display directive, not routed.
		log.Printf("Display directive from %s: %s", s.ID(), display.DescribeDirective(msg))
		return
	}

	var frame model.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("Tried to parse %q as JSON: %v", msg, err)
		r.reportDecodeFailure(s)
		return
	}

	switch {
	case frame.Type == model.TypeHello:
		r.handleHello(s, &frame)
	case frame.Type == model.TypeHeartbeat:
		if s.Role() == RoleDevice {
			s.Touch()
		}
	case frame.Type == model.TypeLogin:
		r.handleLogin(s, &frame)
	case frame.Type == model.TypeListAvailable:
		r.handleListAvailable(s)
	case model.IsCommand(frame.Type):
		r.handleCommand(s, &frame)
	default:
		r.handleUnknown(s, data)
	}
}

// handleHello promotes a session to a registered bobbycar. Every rejection
// here is silent: field devices treat any reply to hello other than silence
// as a protocol error, so malformed hellos are only logged.
func (r *Router) handleHello(s *Session, f *model.Frame) {
	if s.Authenticated() {
		return
	}
	if f.Key == nil {
		return
	}
	if f.Name == nil {
		log.Println("No name given")
		return
	}
	if f.Res == nil {
		log.Println("No resolution given")
		return
	}
	if f.Pass == nil {
		log.Println("No password given")
		return
	}
	if *f.Key != r.authKey {
		return
	}

	s.PromoteDevice(*f.Name)
	log.Printf("Authenticated %s", *f.Name)

	device := &Device{
		ID:      s.ID(),
		Name:    *f.Name,
		Res:     *f.Res,
		Pass:    *f.Pass,
		IP:      s.RemoteIP(),
		Port:    s.RemotePort(),
		Session: s,
	}

	if old := r.registry.RegisterDevice(device); old != nil {
		log.Printf("Bobbycar %s already exists, replacing with new one", old.Name)
	}

	go r.superviseDevice(device)
}

// handleLogin pairs a session with a registered bobbycar.
func (r *Router) handleLogin(s *Session, f *model.Frame) {
	if s.Role() != RoleNone {
		// Roles are terminal; a paired session cannot log in again.
		r.sendError(s, model.TypeLoginError, "Already paired")
		return
	}
	if f.User == nil {
		log.Println("No user given")
		r.sendError(s, model.TypeError, "No user given")
		return
	}
	if f.Pass == nil {
		log.Println("No password given")
		r.sendError(s, model.TypeLoginError, "No password given")
		return
	}

	device, ok := r.registry.Device(*f.User)
	if !ok {
		log.Printf("Bobbycar %s not connected", *f.User)
		r.sendError(s, model.TypeLoginError, "Bobbycar offline")
		return
	}
	if device.Pass != *f.Pass {
		log.Printf("Wrong password for %s", device.Name)
		r.sendError(s, model.TypeLoginError, "Incorrect data")
		return
	}

	log.Printf("Client logged in as %s", device.Name)
	s.SendJSON(model.LoginAck{
		Type: model.TypeLogin,
		Name: device.Name,
		IP:   device.IP,
		Res:  device.Res,
	})
	s.PromoteClient(device.Name)
	r.registry.AddClient(s)
}

// handleListAvailable answers with the public projection of every registered
// bobbycar. Only paired clients may list.
func (r *Router) handleListAvailable(s *Session) {
	if !s.Authenticated() || s.Role() != RoleClient {
		r.sendError(s, model.TypeError, "Client not authenticated")
		return
	}

	devices := r.registry.Devices()
	infos := make([]model.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, d.Info())
	}
	s.SendJSON(model.ListAvailablePacket{
		Type:      model.TypeListAvailable,
		Bobbycars: infos,
	})
}

// handleCommand relays a command between a client and its paired bobbycar.
func (r *Router) handleCommand(s *Session, f *model.Frame) {
	if !s.Authenticated() {
		r.sendError(s, model.TypeError, "Client not authenticated")
		return
	}

	switch f.Type {
	case "msg", "popup":
		if f.Msg == nil {
			log.Println("No message given")
			r.sendError(s, model.TypeError, "No message given")
			return
		}
	}
	switch f.Type {
	case "setConfig", "getSingleConfig", "resetConfig":
		if f.NVSKey == nil {
			log.Println("No nvskey given")
			r.sendError(s, model.TypeError, "No nvskey given")
			return
		}
	}
	if f.Type == "setConfig" && f.Value == nil {
		log.Println("No value given")
		r.sendError(s, model.TypeError, "No value given")
		return
	}
	switch f.Type {
	case "rawBtnPrssd", "btnPressed":
		if f.Btn == nil {
			log.Println("No button given")
			r.sendError(s, model.TypeError, "No button given")
			return
		}
	}

	if f.Type == "initScreen" {
		log.Println("Initializing screen")
	}

	if s.Role() == RoleDevice {
		r.fanoutJSON(s.Name(), model.CommandEcho{
			Type: f.Type,
			Msg:  f.Msg,
			ID:   f.ID,
		})
		return
	}

	device, ok := r.registry.Device(s.Name())
	if !ok {
		log.Printf("Bobbycar %s not connected", s.Name())
		r.sendError(s, model.TypeError, "Bobbycar not connected")
		return
	}
	device.Session.SendJSON(model.CommandPacket{
		Type:   f.Type,
		ID:     f.ID,
		Msg:    f.Msg,
		NVSKey: f.NVSKey,
		Value:  f.Value,
		Btn:    f.Btn,
	})
}

// handleUnknown forwards any other structured message from a bobbycar to its
// clients unmodified. Unknown kinds from clients are dropped.
func (r *Router) handleUnknown(s *Session, raw []byte) {
	if !s.Authenticated() {
		r.sendError(s, model.TypeError, "Client not authenticated")
		return
	}
	if s.Role() == RoleDevice {
		r.fanoutRaw(s.Name(), raw)
	}
}

// reportDecodeFailure tells the sender's bound clients that a frame could not
// be parsed. The first hub revision broadcast this to every connected client
// regardless of pairing; it is scoped here like every other broadcast path.
func (r *Router) reportDecodeFailure(s *Session) {
	r.fanoutJSON(s.Name(), model.ErrorPacket{
		Type:  model.TypeBobbyError,
		Error: "Could not parse JSON",
	})
}

func (r *Router) sendError(s *Session, errType, text string) {
	log.Println(text)
	s.SendJSON(model.ErrorPacket{Type: errType, Error: text})
}

func (r *Router) fanoutRaw(name string, data []byte) {
	for _, c := range r.registry.ClientsFor(name) {
		c.Send(data)
	}
}

func (r *Router) fanoutJSON(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.fanoutRaw(name, data)
}
