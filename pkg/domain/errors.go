package domain

import "errors"

var (
	// ErrInvalidEdge is returned when a dependency edge is rejected, e.g. a
	// self-loop where source and target are the same task.
	ErrInvalidEdge = errors.New("invalid dependency edge")

	// ErrEdgeNotFound is returned when an edge id does not exist.
	ErrEdgeNotFound = errors.New("dependency edge not found")

	// ErrTaskNotFound is returned by the task store for unknown task ids.
	ErrTaskNotFound = errors.New("task not found")

	// ErrConnectionNotFound is returned for unknown connection ids.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrStatusConflict is returned when a compare-and-swap status update
	// observes a different current status than expected.
	ErrStatusConflict = errors.New("task status changed concurrently")
)
