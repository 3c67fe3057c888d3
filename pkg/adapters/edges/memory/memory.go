package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/pkg/domain"
)

// InMemoryEdgeStore implements EdgeStore using an in-memory map
// This is for testing and single-instance development use
type InMemoryEdgeStore struct {
	edges map[string]domain.DependencyEdge
	mu    sync.RWMutex
}

// NewInMemoryEdgeStore creates a new in-memory edge store
func NewInMemoryEdgeStore() *InMemoryEdgeStore {
	return &InMemoryEdgeStore{
		edges: make(map[string]domain.DependencyEdge),
	}
}

// AddEdge stores a dependency edge in canonical BlockedBy orientation.
// Self-loops are rejected.
func (s *InMemoryEdgeStore) AddEdge(ctx context.Context, edge domain.DependencyEdge) (*domain.DependencyEdge, error) {
	edge = edge.Canonical()

	if edge.SourceID == "" || edge.TargetID == "" || edge.SourceID == edge.TargetID {
		return nil, domain.ErrInvalidEdge
	}

	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.edges[edge.ID] = edge
	s.mu.Unlock()

	return &edge, nil
}

// EdgesFor returns all edges where the task is either endpoint
func (s *InMemoryEdgeStore) EdgesFor(ctx context.Context, taskID string) ([]domain.DependencyEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DependencyEdge
	for _, edge := range s.edges {
		if edge.SourceID == taskID || edge.TargetID == taskID {
			out = append(out, edge)
		}
	}
	return out, nil
}

// RemoveEdge deletes an edge by id
func (s *InMemoryEdgeStore) RemoveEdge(ctx context.Context, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[edgeID]; !ok {
		return domain.ErrEdgeNotFound
	}

	delete(s.edges, edgeID)
	return nil
}
