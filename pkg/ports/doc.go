// Package ports defines the interfaces between the application core and its
// collaborators (task persistence, edge storage, authorization, event bus,
// transport senders, metrics). Adapters under pkg/adapters implement them.
package ports
