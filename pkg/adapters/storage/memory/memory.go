package memory

import (
	"context"
	"sync"

	"github.com/taskhive/taskhive/pkg/domain"
)

// InMemoryTaskStore implements TaskStore using an in-memory map
// This is for testing and single-instance development use
type InMemoryTaskStore struct {
	tasks map[string]*domain.Task
	mu    sync.RWMutex
}

// NewInMemoryTaskStore creates a new in-memory task store
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*domain.Task),
	}
}

// Put stores or replaces a task
func (s *InMemoryTaskStore) Put(task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := task
	s.tasks[task.ID] = &copied
}

// GetTask retrieves a task by id
func (s *InMemoryTaskStore) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	copied := *task
	return &copied, nil
}

// GetStatus retrieves a task's current status
func (s *InMemoryTaskStore) GetStatus(ctx context.Context, taskID string) (domain.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return "", domain.ErrTaskNotFound
	}

	return task.Status, nil
}

// SetStatus unconditionally updates a task's status
func (s *InMemoryTaskStore) SetStatus(ctx context.Context, taskID string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}

	task.Status = status
	return nil
}

// SetStatusIfCurrent updates the status only if the stored status still
// equals expected
func (s *InMemoryTaskStore) SetStatusIfCurrent(ctx context.Context, taskID string, expected, next domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}

	if task.Status != expected {
		return domain.ErrStatusConflict
	}

	task.Status = next
	return nil
}
