package domain

// Status represents the lifecycle status of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Gated reports whether moving to this status requires dependency validation.
// Only forward moves (InProgress, Completed) are gated; moving back to Pending
// or out to Cancelled is always allowed.
func (s Status) Gated() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Task is the slice of a task the core reads and writes. The full task record
// is owned by the persistence collaborator.
type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// Actor identifies who requested an operation
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
