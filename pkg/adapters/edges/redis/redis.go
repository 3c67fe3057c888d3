package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
)

// EdgeStore implements EdgeStore backed by Redis. Each edge is a JSON record
// under its own key; per-task index sets hold the edge ids touching a task.
type EdgeStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewEdgeStore creates a new Redis edge store
func NewEdgeStore(client *redis.Client, logger *zap.Logger) *EdgeStore {
	return &EdgeStore{
		client: client,
		logger: logger,
	}
}

// AddEdge stores a dependency edge in canonical BlockedBy orientation.
// Self-loops are rejected. The record write and both index updates run in a
// single pipeline.
func (s *EdgeStore) AddEdge(ctx context.Context, edge domain.DependencyEdge) (*domain.DependencyEdge, error) {
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

	data, err := json.Marshal(edge)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edge: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, getEdgeKey(edge.ID), data, 0)
	pipe.SAdd(ctx, getTaskIndexKey(edge.SourceID), edge.ID)
	pipe.SAdd(ctx, getTaskIndexKey(edge.TargetID), edge.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store edge: %w", err)
	}

	s.logger.Debug("edge stored",
		zap.String("edge_id", edge.ID),
		zap.String("source_id", edge.SourceID),
		zap.String("target_id", edge.TargetID))

	return &edge, nil
}

// EdgesFor returns all edges where the task is either endpoint
func (s *EdgeStore) EdgesFor(ctx context.Context, taskID string) ([]domain.DependencyEdge, error) {
	ids, err := s.client.SMembers(ctx, getTaskIndexKey(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read edge index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = getEdgeKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}

	edges := make([]domain.DependencyEdge, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Record gone but index entry left behind; repair the index.
			s.client.SRem(ctx, getTaskIndexKey(taskID), ids[i])
			continue
		}

		var edge domain.DependencyEdge
		if err := json.Unmarshal([]byte(raw), &edge); err != nil {
			s.logger.Error("failed to unmarshal edge",
				zap.String("edge_id", ids[i]),
				zap.Error(err))
			continue
		}
		edges = append(edges, edge)
	}

	return edges, nil
}

// RemoveEdge deletes an edge and its index entries
func (s *EdgeStore) RemoveEdge(ctx context.Context, edgeID string) error {
	data, err := s.client.Get(ctx, getEdgeKey(edgeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.ErrEdgeNotFound
		}
		return fmt.Errorf("failed to get edge: %w", err)
	}

	var edge domain.DependencyEdge
	if err := json.Unmarshal(data, &edge); err != nil {
		return fmt.Errorf("failed to unmarshal edge: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, getEdgeKey(edgeID))
	pipe.SRem(ctx, getTaskIndexKey(edge.SourceID), edgeID)
	pipe.SRem(ctx, getTaskIndexKey(edge.TargetID), edgeID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove edge: %w", err)
	}

	s.logger.Debug("edge removed", zap.String("edge_id", edgeID))
	return nil
}

// getEdgeKey returns the Redis key for an edge record
func getEdgeKey(edgeID string) string {
	return fmt.Sprintf("taskhive:edge:%s", edgeID)
}

// getTaskIndexKey returns the Redis key for a task's edge index set
func getTaskIndexKey(taskID string) string {
	return fmt.Sprintf("taskhive:edges:task:%s", taskID)
}
