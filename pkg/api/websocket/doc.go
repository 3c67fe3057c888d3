// Package websocket provides the real-time transport.
//
// Each client connects to /api/v1/ws and is registered with the presence
// registry for its lifetime. Clients send join/leave/heartbeat messages and
// receive broadcast events as JSON.
package websocket
