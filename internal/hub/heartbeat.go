package hub

import (
	"log"
	"time"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/model"
	"github.com/gorilla/websocket"
)

// superviseDevice enforces the liveness deadline for one registered
// bobbycar. Each tick either pushes the heartbeat latency to the bound
// clients or, once the deadline is exceeded, closes the bobbycar, notifies
// its clients and evicts the record. The supervisor stops when the session's
// heartbeat is cancelled, which happens exactly once, on timeout or on
// normal disconnect.
func (r *Router) superviseDevice(d *Device) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.Session.heartbeatStop:
			return
		case <-ticker.C:
			elapsed := d.Session.SincePing()
			if elapsed > r.heartbeatDeadline {
				log.Printf("Bobbycar %s timed out (%dms)", d.Name, elapsed.Milliseconds())
				d.Session.StopHeartbeat()
				// Whoever wins the eviction sends the notification, so
				// the bound clients see exactly one disconnect even if
				// the connection teardown races this tick.
				evicted := r.registry.RemoveDevice(d.Name, d.ID)
				d.Session.CloseWithReason(websocket.CloseNormalClosure, "Bobbycar timed out")
				if evicted {
					r.fanoutJSON(d.Name, model.DisconnectPacket{
						Type:   model.TypeDisconnect,
						Code:   websocket.CloseNormalClosure,
						Reason: "Bobbycar timed out",
					})
				}
				return
			}
			r.fanoutJSON(d.Name, model.PingPacket{
				Type: model.TypePing,
				Time: elapsed.Milliseconds(),
			})
		}
	}
}
