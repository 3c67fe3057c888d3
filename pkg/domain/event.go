package domain

import (
	"fmt"
	"time"
)

// EventType identifies the kind of broadcast event
type EventType string

const (
	EventTypeTaskStatusChanged EventType = "task.status_changed"
	EventTypeUserConnected     EventType = "presence.connected"
	EventTypeUserDisconnected  EventType = "presence.disconnected"
	EventTypeSystemMessage     EventType = "system.message"
)

// Channel keys. Per-task and per-user channels are keyed by id; ChannelAll is
// the implicit global channel every connection belongs to.
const ChannelAll = "All"

// TaskChannel returns the channel key scoping events to a single task
func TaskChannel(taskID string) string {
	return fmt.Sprintf("Task_%s", taskID)
}

// UserChannel returns the channel key scoping events to a single user
func UserChannel(userID string) string {
	return fmt.Sprintf("User_%s", userID)
}

// Event is the payload handed to the broadcast dispatcher and written to
// connected clients. Delivery is fire-and-forget, at-most-once: nothing
// acknowledges, retries or replays an event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Channel   string                 `json:"channel,omitempty"`
	Actor     Actor                  `json:"actor,omitempty"`
	Origin    string                 `json:"origin,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// StatusChangeData builds the data payload for a task.status_changed event
func StatusChangeData(taskID string, oldStatus, newStatus Status) map[string]interface{} {
	return map[string]interface{}{
		"task_id":    taskID,
		"old_status": string(oldStatus),
		"new_status": string(newStatus),
	}
}
