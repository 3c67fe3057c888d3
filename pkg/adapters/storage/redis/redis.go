package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
)

// casScript swaps the status field only when it still holds the expected
// value. Returns 1 on swap, 0 on conflict, -1 when the task does not exist.
var casScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'status')
if current == false then
	return -1
end
if current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2])
return 1
`)

// TaskStore implements TaskStore backed by Redis hashes
type TaskStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewTaskStore creates a new Redis task store
func NewTaskStore(client *redis.Client, logger *zap.Logger) *TaskStore {
	return &TaskStore{
		client: client,
		logger: logger,
	}
}

// GetTask retrieves a task by id
func (s *TaskStore) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	fields, err := s.client.HGetAll(ctx, getTaskKey(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrTaskNotFound
	}

	return &domain.Task{
		ID:     taskID,
		Title:  fields["title"],
		Status: domain.Status(fields["status"]),
	}, nil
}

// GetStatus retrieves a task's current status
func (s *TaskStore) GetStatus(ctx context.Context, taskID string) (domain.Status, error) {
	status, err := s.client.HGet(ctx, getTaskKey(taskID), "status").Result()
	if err != nil {
		if err == redis.Nil {
			return "", domain.ErrTaskNotFound
		}
		return "", fmt.Errorf("failed to get status: %w", err)
	}

	return domain.Status(status), nil
}

// SetStatus unconditionally updates a task's status
func (s *TaskStore) SetStatus(ctx context.Context, taskID string, status domain.Status) error {
	key := getTaskKey(taskID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check task: %w", err)
	}
	if exists == 0 {
		return domain.ErrTaskNotFound
	}

	if err := s.client.HSet(ctx, key, "status", string(status)).Err(); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	s.logger.Debug("task status saved",
		zap.String("task_id", taskID),
		zap.String("status", string(status)))

	return nil
}

// SetStatusIfCurrent updates the status only if the stored status still
// equals expected. The compare-and-swap runs server-side in a Lua script.
func (s *TaskStore) SetStatusIfCurrent(ctx context.Context, taskID string, expected, next domain.Status) error {
	result, err := casScript.Run(ctx, s.client,
		[]string{getTaskKey(taskID)},
		string(expected), string(next)).Int()
	if err != nil {
		return fmt.Errorf("failed to swap status: %w", err)
	}

	switch result {
	case 1:
		return nil
	case 0:
		return domain.ErrStatusConflict
	default:
		return domain.ErrTaskNotFound
	}
}

// SeedTask writes a full task record. Used by provisioning and tests; the
// running core only touches status.
func (s *TaskStore) SeedTask(ctx context.Context, task domain.Task) error {
	err := s.client.HSet(ctx, getTaskKey(task.ID),
		"title", task.Title,
		"status", string(task.Status)).Err()
	if err != nil {
		return fmt.Errorf("failed to seed task: %w", err)
	}
	return nil
}

// getTaskKey returns the Redis key for a task record
func getTaskKey(taskID string) string {
	return fmt.Sprintf("taskhive:task:%s", taskID)
}
