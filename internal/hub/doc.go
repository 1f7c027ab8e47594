// Package hub is the core of the bobbycar relay: it owns the connection
// lifecycle, the pairing protocol, heartbeat supervision and message routing.
//
// The package implements:
//   - Session: one accepted connection with its role, pairing and liveness state
//   - Registry: the live bobbycar table and the set of paired client sessions
//   - Router: frame decoding, per-kind validation and fan-out/point-to-point routing
//   - Handler: WebSocket upgrade plus the per-connection read and write pumps
//
// A bobbycar registers under a unique name with a hello message; clients pair
// against that name and password with login and from then on receive
// everything the bobbycar broadcasts. Sends are fire-and-forget through a
// bounded per-session queue, so a slow client is disconnected rather than
// blocking the router. Each registered bobbycar is watched by a heartbeat
// supervisor that evicts it once its liveness deadline lapses.
package hub
