package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
)

// Broadcaster is the slice of the dispatcher the controller needs
type Broadcaster interface {
	ToChannel(channel string, event domain.Event)
	ToAll(event domain.Event)
}

// Controller receives transition requests, validates them and applies
// permitted changes through the task store.
type Controller struct {
	validator   *Validator
	tasks       ports.TaskStore
	edges       ports.EdgeStore
	broadcaster Broadcaster
	metrics     ports.MetricsCollector
	logger      *zap.Logger
	cycleCheck  bool

	// Per-task mutexes serialize concurrent transitions on the same task;
	// the compare-and-swap in the store closes the window against writers
	// that bypass this process.
	locks sync.Map // map[string]*sync.Mutex
}

// ControllerConfig holds controller dependencies
type ControllerConfig struct {
	Validator   *Validator
	Tasks       ports.TaskStore
	Edges       ports.EdgeStore
	Broadcaster Broadcaster
	Metrics     ports.MetricsCollector
	Logger      *zap.Logger
	CycleCheck  bool
}

// NewController creates a new workflow controller
func NewController(cfg *ControllerConfig) *Controller {
	return &Controller{
		validator:   cfg.Validator,
		tasks:       cfg.Tasks,
		edges:       cfg.Edges,
		broadcaster: cfg.Broadcaster,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		cycleCheck:  cfg.CycleCheck,
	}
}

// RequestTransition validates and applies a status change.
//
// A denied transition is returned as a Decision with no side effects and no
// broadcast. On success the task is updated and a task.status_changed event
// is dispatched to the task's channel and to the global channel. Persistence
// failures propagate as errors and nothing is broadcast. Requesting a status
// the task already has is a no-op.
func (c *Controller) RequestTransition(ctx context.Context, taskID string, target domain.Status, actor domain.Actor) (*domain.Task, *Decision, error) {
	if !target.Valid() {
		return nil, nil, fmt.Errorf("unknown status: %s", target)
	}

	mu := c.lockFor(taskID)
	mu.Lock()
	defer mu.Unlock()

	decision := c.validator.CanTransition(ctx, taskID, target)
	if !decision.Allowed {
		c.metrics.RecordTransition(target, "denied")
		c.metrics.RecordDenialReasons(len(decision.Reasons))
		c.logger.Info("transition denied",
			zap.String("task_id", taskID),
			zap.String("target", string(target)),
			zap.Strings("reasons", decision.Reasons))
		return nil, &decision, nil
	}

	task, err := c.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load task: %w", err)
	}

	if task.Status == target {
		c.metrics.RecordTransition(target, "noop")
		return task, nil, nil
	}

	oldStatus := task.Status
	if err := c.tasks.SetStatusIfCurrent(ctx, taskID, oldStatus, target); err != nil {
		c.metrics.RecordTransition(target, "failed")
		return nil, nil, fmt.Errorf("failed to update status: %w", err)
	}
	task.Status = target

	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeTaskStatusChanged,
		Actor:     actor,
		Timestamp: time.Now(),
		Data:      domain.StatusChangeData(taskID, oldStatus, target),
	}

	c.broadcaster.ToChannel(domain.TaskChannel(taskID), event)
	c.broadcaster.ToAll(event)

	c.metrics.RecordTransition(target, "applied")
	c.logger.Info("task status changed",
		zap.String("task_id", taskID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(target)),
		zap.String("actor_id", actor.ID))

	return task, nil, nil
}

// CanStart is the read-only check used by the UI: may the task move to
// InProgress right now. No side effects.
func (c *Controller) CanStart(ctx context.Context, taskID string) Decision {
	return c.validator.CanTransition(ctx, taskID, domain.StatusInProgress)
}

// AddDependency stores a dependency edge between two tasks. When the cycle
// check is enabled, edges that would close a BlockedBy cycle are rejected.
func (c *Controller) AddDependency(ctx context.Context, edge domain.DependencyEdge) (*domain.DependencyEdge, error) {
	canonical := edge.Canonical()

	if c.cycleCheck {
		cyclic, err := wouldCreateCycle(ctx, c.edges, canonical.SourceID, canonical.TargetID)
		if err != nil {
			return nil, fmt.Errorf("cycle check failed: %w", err)
		}
		if cyclic {
			return nil, fmt.Errorf("edge would create a dependency cycle: %w", domain.ErrInvalidEdge)
		}
	}

	stored, err := c.edges.AddEdge(ctx, canonical)
	if err != nil {
		return nil, err
	}

	c.logger.Info("dependency edge added",
		zap.String("edge_id", stored.ID),
		zap.String("source_id", stored.SourceID),
		zap.String("target_id", stored.TargetID))

	return stored, nil
}

// Dependencies returns all edges where the task is either endpoint
func (c *Controller) Dependencies(ctx context.Context, taskID string) ([]domain.DependencyEdge, error) {
	return c.edges.EdgesFor(ctx, taskID)
}

// RemoveDependency deletes a dependency edge by id
func (c *Controller) RemoveDependency(ctx context.Context, edgeID string) error {
	if err := c.edges.RemoveEdge(ctx, edgeID); err != nil {
		return err
	}

	c.logger.Info("dependency edge removed", zap.String("edge_id", edgeID))
	return nil
}

// lockFor returns the mutex serializing transitions for one task
func (c *Controller) lockFor(taskID string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(taskID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
