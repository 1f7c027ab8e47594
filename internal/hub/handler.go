package hub

import (
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/model"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer. Display buffers are binary
	// frames of up to a full framebuffer.
	maxMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
	CheckOrigin: func(r *http.Request) bool {
		// Bobbycars are not browsers and clients connect from anywhere
		// on the LAN.
		return true
	},
}

// Handler accepts WebSocket connections and runs their read/write pumps.
type Handler struct {
	router   *Router
	registry *Registry
}

// NewHandler creates a connection handler backed by the given router.
func NewHandler(router *Router, registry *Registry) *Handler {
	return &Handler{router: router, registry: registry}
}

// HandleConnection upgrades an HTTP request to a WebSocket session and starts
// its pumps.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	ip, port := clientAddr(r)
	session := NewSession(conn, ip, port)

	go h.writePump(session)
	go h.readPump(session)

	return nil
}

// clientAddr resolves the originating address, honoring X-Forwarded-For when
// the relay sits behind a proxy.
func clientAddr(r *http.Request) (ip, port string) {
	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd, port
	}
	return host, port
}

// readPump pumps inbound frames into the router until the connection dies,
// then tears the session down.
func (h *Handler) readPump(s *Session) {
	closeCode := websocket.CloseNormalClosure
	closeReason := ""

	defer func() {
		h.teardown(s, closeCode, closeReason)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				closeCode = closeErr.Code
				closeReason = closeErr.Text
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if kind == websocket.BinaryMessage {
			h.router.HandleBinary(s, data)
			continue
		}
		h.router.HandleText(s, data)
	}
}

// teardown deregisters a closed session and, for a bobbycar that was still
// the registered record for its name, notifies its clients.
func (h *Handler) teardown(s *Session, code int, reason string) {
	if reason == "" {
		reason = "Bobbycar Disconnected"
	}

	log.Printf("closed connection %s", s.ID())

	switch s.Role() {
	case RoleDevice:
		log.Printf("Bobbycar Connection closed: %d %s (Name: %s)", code, reason, s.Name())
		s.StopHeartbeat()
		if h.registry.RemoveDevice(s.Name(), s.ID()) {
			h.router.fanoutJSON(s.Name(), model.DisconnectPacket{
				Type:   model.TypeDisconnect,
				Code:   code,
				Reason: reason,
			})
		}
	case RoleClient:
		log.Printf("Client Connection closed: %d %s (Client IP: %s)", code, reason, s.RemoteIP())
		h.registry.RemoveClient(s)
	default:
		log.Printf("Connection closed from unknown source: %d %s (Client IP: %s)", code, reason, s.RemoteIP())
	}

	s.Close()
}

// writePump drains the session's outbound queue into the connection and keeps
// the connection alive with protocol-level pings.
func (h *Handler) writePump(s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case m, ok := <-s.SendChan():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(m.Kind, m.Data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
