package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
)

// ReasonUnverifiable is the synthetic denial reason used when a collaborator
// failure prevents checking dependencies. The validator fails closed rather
// than silently allowing the transition.
const ReasonUnverifiable = "unable to verify dependencies"

// Decision is the outcome of a transition check. A denial carries every
// blocking reason, not just the first; callers must display all of them.
type Decision struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Validator decides whether a task may move to a requested status
type Validator struct {
	tasks  ports.TaskStore
	edges  ports.EdgeStore
	logger *zap.Logger
}

// NewValidator creates a new transition validator
func NewValidator(tasks ports.TaskStore, edges ports.EdgeStore, logger *zap.Logger) *Validator {
	return &Validator{
		tasks:  tasks,
		edges:  edges,
		logger: logger,
	}
}

// CanTransition checks whether the task may move to the target status.
//
// Only InProgress and Completed are gated; Pending and Cancelled are always
// allowed. For gated targets, every BlockedBy predecessor must be Completed.
// The check is one hop deep: a predecessor blocks because it is not Completed,
// regardless of whether that predecessor is itself blocked.
func (v *Validator) CanTransition(ctx context.Context, taskID string, target domain.Status) Decision {
	if !target.Gated() {
		return Decision{Allowed: true}
	}

	edges, err := v.edges.EdgesFor(ctx, taskID)
	if err != nil {
		v.logger.Error("failed to load dependency edges",
			zap.String("task_id", taskID),
			zap.Error(err))
		return Decision{Allowed: false, Reasons: []string{ReasonUnverifiable}}
	}

	var reasons []string
	for _, edge := range edges {
		// Only edges where this task is the dependent side gate it.
		if edge.SourceID != taskID {
			continue
		}

		pred, err := v.tasks.GetTask(ctx, edge.TargetID)
		if err != nil {
			v.logger.Error("failed to load predecessor status",
				zap.String("task_id", taskID),
				zap.String("predecessor_id", edge.TargetID),
				zap.Error(err))
			return Decision{Allowed: false, Reasons: []string{ReasonUnverifiable}}
		}

		if pred.Status != domain.StatusCompleted {
			title := pred.Title
			if title == "" {
				title = pred.ID
			}
			reasons = append(reasons, fmt.Sprintf("%s must be completed first", title))
		}
	}

	if len(reasons) > 0 {
		return Decision{Allowed: false, Reasons: reasons}
	}
	return Decision{Allowed: true}
}
