// Package http provides the HTTP API server.
//
// Endpoints cover task transitions, the read-only can-start check,
// dependency edges, presence listing and the privileged system broadcast,
// plus /health and /metrics.
package http
