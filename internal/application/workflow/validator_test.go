package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	edgesmemory "github.com/taskhive/taskhive/pkg/adapters/edges/memory"
	storagememory "github.com/taskhive/taskhive/pkg/adapters/storage/memory"
	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
)

func newValidatorFixture(t *testing.T) (*Validator, *storagememory.InMemoryTaskStore, *edgesmemory.InMemoryEdgeStore) {
	t.Helper()
	tasks := storagememory.NewInMemoryTaskStore()
	edges := edgesmemory.NewInMemoryEdgeStore()
	return NewValidator(tasks, edges, zap.NewNop()), tasks, edges
}

func addEdge(t *testing.T, edges *edgesmemory.InMemoryEdgeStore, source, target string) {
	t.Helper()
	_, err := edges.AddEdge(context.Background(), domain.DependencyEdge{
		SourceID: source,
		TargetID: target,
		Relation: domain.RelationBlockedBy,
	})
	require.NoError(t, err)
}

func TestCanTransition_NoDependencies(t *testing.T) {
	v, tasks, _ := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "1", Title: "Task #1", Status: domain.StatusPending})

	decision := v.CanTransition(context.Background(), "1", domain.StatusInProgress)

	assert.True(t, decision.Allowed, "task with no BlockedBy edges is always startable")
	assert.Empty(t, decision.Reasons)
}

func TestCanTransition_BlockedByIncompletePredecessor(t *testing.T) {
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "10", Title: "Task #10", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "7", Title: "Task #7", Status: domain.StatusPending})
	addEdge(t, edges, "10", "7")

	decision := v.CanTransition(context.Background(), "10", domain.StatusInProgress)

	require.False(t, decision.Allowed)
	assert.Equal(t, []string{"Task #7 must be completed first"}, decision.Reasons)
}

func TestCanTransition_AllowedAfterPredecessorCompletes(t *testing.T) {
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "10", Title: "Task #10", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "7", Title: "Task #7", Status: domain.StatusPending})
	addEdge(t, edges, "10", "7")

	require.NoError(t, tasks.SetStatus(context.Background(), "7", domain.StatusCompleted))

	decision := v.CanTransition(context.Background(), "10", domain.StatusInProgress)
	assert.True(t, decision.Allowed)
}

func TestCanTransition_MultipleUnmetPredecessorsAccumulate(t *testing.T) {
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "t", Title: "Deploy", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "a", Title: "Build", Status: domain.StatusInProgress})
	tasks.Put(domain.Task{ID: "b", Title: "Review", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "c", Title: "Sign-off", Status: domain.StatusCompleted})
	addEdge(t, edges, "t", "a")
	addEdge(t, edges, "t", "b")
	addEdge(t, edges, "t", "c")

	decision := v.CanTransition(context.Background(), "t", domain.StatusCompleted)

	require.False(t, decision.Allowed)
	assert.Len(t, decision.Reasons, 2, "every unmet predecessor contributes a reason")
	assert.Contains(t, decision.Reasons, "Build must be completed first")
	assert.Contains(t, decision.Reasons, "Review must be completed first")
}

func TestCanTransition_UngatedTargetsAlwaysAllowed(t *testing.T) {
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "10", Title: "Task #10", Status: domain.StatusInProgress})
	tasks.Put(domain.Task{ID: "7", Title: "Task #7", Status: domain.StatusPending})
	addEdge(t, edges, "10", "7")

	for _, target := range []domain.Status{domain.StatusPending, domain.StatusCancelled} {
		decision := v.CanTransition(context.Background(), "10", target)
		assert.True(t, decision.Allowed, "moving to %s is never denied", target)
	}
}

func TestCanTransition_OneHopOnly(t *testing.T) {
	// b blocks a, c blocks b. Once b is Completed it no longer blocks a,
	// even though c never completed: the check does not chase b's own
	// predecessors.
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "a", Title: "A", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "b", Title: "B", Status: domain.StatusCompleted})
	tasks.Put(domain.Task{ID: "c", Title: "C", Status: domain.StatusPending})
	addEdge(t, edges, "a", "b")
	addEdge(t, edges, "b", "c")

	decision := v.CanTransition(context.Background(), "a", domain.StatusInProgress)
	assert.True(t, decision.Allowed)
}

func TestCanTransition_SuccessorEdgesDoNotGate(t *testing.T) {
	// "7" is the predecessor side of the edge; its own startability is not
	// affected by tasks that depend on it.
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "10", Title: "Task #10", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "7", Title: "Task #7", Status: domain.StatusPending})
	addEdge(t, edges, "10", "7")

	decision := v.CanTransition(context.Background(), "7", domain.StatusInProgress)
	assert.True(t, decision.Allowed)
}

func TestCanTransition_CycleBlocksPermanently(t *testing.T) {
	v, tasks, edges := newValidatorFixture(t)
	tasks.Put(domain.Task{ID: "a", Title: "A", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "b", Title: "B", Status: domain.StatusPending})
	tasks.Put(domain.Task{ID: "c", Title: "C", Status: domain.StatusPending})
	addEdge(t, edges, "a", "b")
	addEdge(t, edges, "b", "c")
	addEdge(t, edges, "c", "a")

	// Documented limitation: no deadlock detection, each task is simply
	// denied because its predecessor is not Completed.
	for _, id := range []string{"a", "b", "c"} {
		decision := v.CanTransition(context.Background(), id, domain.StatusInProgress)
		assert.False(t, decision.Allowed, "task %s in a cycle is never startable", id)
	}
}

type failingEdgeStore struct{}

func (failingEdgeStore) AddEdge(context.Context, domain.DependencyEdge) (*domain.DependencyEdge, error) {
	return nil, errors.New("storage unreachable")
}
func (failingEdgeStore) EdgesFor(context.Context, string) ([]domain.DependencyEdge, error) {
	return nil, errors.New("storage unreachable")
}
func (failingEdgeStore) RemoveEdge(context.Context, string) error {
	return errors.New("storage unreachable")
}

type failingTaskStore struct{}

func (failingTaskStore) GetTask(context.Context, string) (*domain.Task, error) {
	return nil, errors.New("storage unreachable")
}
func (failingTaskStore) GetStatus(context.Context, string) (domain.Status, error) {
	return "", errors.New("storage unreachable")
}
func (failingTaskStore) SetStatus(context.Context, string, domain.Status) error {
	return errors.New("storage unreachable")
}
func (failingTaskStore) SetStatusIfCurrent(context.Context, string, domain.Status, domain.Status) error {
	return errors.New("storage unreachable")
}

func TestCanTransition_FailsClosedOnEdgeStoreError(t *testing.T) {
	tasks := storagememory.NewInMemoryTaskStore()
	tasks.Put(domain.Task{ID: "1", Title: "Task #1", Status: domain.StatusPending})
	v := NewValidator(tasks, failingEdgeStore{}, zap.NewNop())

	decision := v.CanTransition(context.Background(), "1", domain.StatusInProgress)

	require.False(t, decision.Allowed, "collaborator failure must deny, not silently allow")
	assert.Equal(t, []string{ReasonUnverifiable}, decision.Reasons)
}

func TestCanTransition_FailsClosedOnPredecessorLookupError(t *testing.T) {
	edges := edgesmemory.NewInMemoryEdgeStore()
	_, err := edges.AddEdge(context.Background(), domain.DependencyEdge{
		SourceID: "10", TargetID: "7", Relation: domain.RelationBlockedBy,
	})
	require.NoError(t, err)

	var store ports.TaskStore = failingTaskStore{}
	v := NewValidator(store, edges, zap.NewNop())

	decision := v.CanTransition(context.Background(), "10", domain.StatusInProgress)

	require.False(t, decision.Allowed)
	assert.Equal(t, []string{ReasonUnverifiable}, decision.Reasons)
}
