// Package presence tracks currently connected actors.
//
// Each live transport session owns exactly one registry entry, created on
// connect and destroyed on disconnect. The registry auto-joins a connection
// to its user's personal channel and announces connect/disconnect to all
// other connections. An optional sweeper expires connections whose transport
// vanished without a clean disconnect.
package presence
