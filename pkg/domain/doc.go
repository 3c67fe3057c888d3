// Package domain defines the core types shared across the service:
// task statuses, dependency edges, broadcast events and connections.
package domain
