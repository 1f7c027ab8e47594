// Package model defines the wire-level message types exchanged between
// bobbycars, web clients and the relay hub.
package model

import "encoding/json"

// Inbound message types.
const (
	TypeHello         = "hello"
	TypeHeartbeat     = "heartbeat"
	TypeLogin         = "login"
	TypeListAvailable = "list-available"
)

// Outbound message types.
const (
	TypeError      = "error"
	TypeWarning    = "warning"
	TypeLoginError = "loginError"
	TypeBobbyError = "bobbyerror"
	TypeDisconnect = "disconnect"
	TypePing       = "bobbycar-ping"
	TypeUDPMessage = "udpmessage"
)

// commandTypes are the message kinds relayed between a client and its paired
// bobbycar. The set mirrors the firmware's command vocabulary.
var commandTypes = map[string]bool{
	"msg":             true,
	"popup":           true,
	"response":        true,
	"getConfig":       true,
	"getSingleConfig": true,
	"setConfig":       true,
	"resetConfig":     true,
	"getInformation":  true,
	"getUptime":       true,
	"getOtaStatus":    true,
	"rawBtnPrssd":     true,
	"btnPressed":      true,
	"initScreen":      true,
}

// IsCommand reports whether t is a relayed command message type.
func IsCommand(t string) bool {
	return commandTypes[t]
}

// Frame is a decoded inbound message. Pointer and RawMessage fields
// distinguish an absent field from a zero value, since several message kinds
// validate field presence rather than field content.
type Frame struct {
	Type   string          `json:"type"`
	Key    *string         `json:"key,omitempty"`
	Name   *string         `json:"name,omitempty"`
	Res    *string         `json:"res,omitempty"`
	Pass   *string         `json:"pass,omitempty"`
	User   *string         `json:"user,omitempty"`
	Msg    json.RawMessage `json:"msg,omitempty"`
	NVSKey json.RawMessage `json:"nvskey,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Btn    json.RawMessage `json:"btn,omitempty"`
	ID     json.RawMessage `json:"id,omitempty"`
}

// ErrorPacket reports a protocol violation back to a session. Type is one of
// TypeError, TypeWarning, TypeLoginError or TypeBobbyError.
type ErrorPacket struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// LoginAck echoes the paired bobbycar's public descriptor to a client after a
// successful login.
type LoginAck struct {
	Type string `json:"type"`
	Name string `json:"name"`
	IP   string `json:"ip"`
	Res  string `json:"res"`
}

// DeviceInfo is the public projection of a registered bobbycar.
type DeviceInfo struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	Res  string `json:"res"`
}

// InventoryEntry is the projection served by the inventory endpoint. It
// includes the pairing password; the deployment model is a closed LAN and the
// dashboard consumes the field to bootstrap pairing.
type InventoryEntry struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	Res  string `json:"res"`
	Pass string `json:"pass"`
}

// ListAvailablePacket answers a list-available request.
type ListAvailablePacket struct {
	Type      string       `json:"type"`
	Bobbycars []DeviceInfo `json:"bobbycars"`
}

// DisconnectPacket tells a client its bobbycar went away.
type DisconnectPacket struct {
	Type   string `json:"type"`
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// PingPacket carries the bobbycar's heartbeat latency to its clients.
type PingPacket struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
}

// UDPMessagePacket wraps a side-channel payload delivered to clients.
type UDPMessagePacket struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CommandPacket is the reconstructed command a client sends to its bobbycar.
// Only the fields present on the inbound frame are forwarded.
type CommandPacket struct {
	Type   string          `json:"type"`
	ID     json.RawMessage `json:"id,omitempty"`
	Msg    json.RawMessage `json:"msg,omitempty"`
	NVSKey json.RawMessage `json:"nvskey,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Btn    json.RawMessage `json:"btn,omitempty"`
}

// CommandEcho is the trimmed command a bobbycar fans out to its clients.
type CommandEcho struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg,omitempty"`
	ID   json.RawMessage `json:"id,omitempty"`
}

// BridgePayload is one side-channel feed entry.
type BridgePayload struct {
	Username string          `json:"username"`
	Message  json.RawMessage `json:"message"`
}
