// Package bridge injects side-channel notifications from an external process
// into matching client sessions.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/hub"
	"github.com/bobbycar-reinvented/bobby-websocket/internal/model"
)

// ErrUnknownDriver is returned when the configured bridge driver has no
// implementation.
var ErrUnknownDriver = errors.New("unknown bridge driver")

// Source is a feed of raw side-channel payloads. The channel closes when the
// source is closed or its connection is lost.
type Source interface {
	Messages() <-chan []byte
	Close() error
}

// ClientDirectory resolves the client sessions bound to a bobbycar name.
// *hub.Registry satisfies it.
type ClientDirectory interface {
	ClientsFor(name string) []*hub.Session
}

// Adapter consumes a Source and delivers each payload to the clients bound to
// the payload's username.
type Adapter struct {
	source  Source
	clients ClientDirectory
}

// New creates an adapter delivering from source into clients.
func New(source Source, clients ClientDirectory) *Adapter {
	return &Adapter{source: source, clients: clients}
}

// Run consumes the feed until ctx is cancelled or the source closes.
func (a *Adapter) Run(ctx context.Context) {
	log.Println("Bridge adapter started")
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-a.source.Messages():
			if !ok {
				log.Println("Bridge feed closed")
				return
			}
			a.deliver(raw)
		}
	}
}

// deliver fans one payload out to the matching clients. Malformed payloads
// are dropped without comment; the feed is best-effort.
func (a *Adapter) deliver(raw []byte) {
	var payload model.BridgePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	if payload.Username == "" {
		return
	}

	packet, err := json.Marshal(model.UDPMessagePacket{
		Type: model.TypeUDPMessage,
		Data: payload.Message,
	})
	if err != nil {
		return
	}

	for _, c := range a.clients.ClientsFor(payload.Username) {
		c.Send(packet)
	}
}
