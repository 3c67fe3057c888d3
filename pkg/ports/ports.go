package ports

import (
	"context"

	"github.com/taskhive/taskhive/pkg/domain"
)

// TaskStore is the task persistence collaborator. The core only reads and
// writes task status; everything else about a task is owned elsewhere.
type TaskStore interface {
	// GetTask returns the task's id, title and current status.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// GetStatus returns the task's current status.
	GetStatus(ctx context.Context, taskID string) (domain.Status, error)

	// SetStatus unconditionally updates the task's status.
	SetStatus(ctx context.Context, taskID string, status domain.Status) error

	// SetStatusIfCurrent updates the status only if the stored status still
	// equals expected. Returns domain.ErrStatusConflict otherwise.
	SetStatusIfCurrent(ctx context.Context, taskID string, expected, next domain.Status) error
}

// EdgeStore persists and queries dependency edges between tasks. Single-edge
// atomicity only; concurrent operations on different edges do not interfere.
type EdgeStore interface {
	// AddEdge stores a dependency edge. Self-loops are rejected with
	// domain.ErrInvalidEdge. Blocks edges are stored in canonical BlockedBy
	// orientation.
	AddEdge(ctx context.Context, edge domain.DependencyEdge) (*domain.DependencyEdge, error)

	// EdgesFor returns all edges where the task is either endpoint, in
	// unspecified order.
	EdgesFor(ctx context.Context, taskID string) ([]domain.DependencyEdge, error)

	// RemoveEdge deletes an edge by id.
	RemoveEdge(ctx context.Context, edgeID string) error
}

// Role is an authorization role name
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Authorizer is the external authorization collaborator. The core uses it only
// for the privileged system-message broadcast check.
type Authorizer interface {
	RoleOf(ctx context.Context, userID string) (Role, error)
}

// EventHandler processes a single event received from the event bus
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus fans events out across service instances. Delivery to handlers is
// at-most-once from the caller's perspective; there is no replay.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// Sender is the write side of one transport connection. Send must not block
// indefinitely; transports buffer internally and report failures as errors.
type Sender interface {
	Send(event domain.Event) error
}

// SenderFunc adapts a function to the Sender interface
type SenderFunc func(event domain.Event) error

// Send calls f(event)
func (f SenderFunc) Send(event domain.Event) error { return f(event) }

// MetricsCollector records operational metrics for the core
type MetricsCollector interface {
	RecordTransition(target domain.Status, outcome string)
	RecordDenialReasons(count int)
	RecordBroadcast(kind string)
	RecordDroppedEvent(reason string)
	SetConnectedClients(count int)
	SetChannelCount(count int)
	SetQueueDepth(depth int)
}
