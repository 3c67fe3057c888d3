package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	edgesmemory "github.com/taskhive/taskhive/pkg/adapters/edges/memory"
	"github.com/taskhive/taskhive/pkg/domain"
)

func TestWouldCreateCycle(t *testing.T) {
	ctx := context.Background()
	edges := edgesmemory.NewInMemoryEdgeStore()

	// Chain: a blocked-by b blocked-by c
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		_, err := edges.AddEdge(ctx, domain.DependencyEdge{
			SourceID: pair[0], TargetID: pair[1], Relation: domain.RelationBlockedBy,
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		source string
		target string
		cyclic bool
	}{
		{"self loop", "a", "a", true},
		{"closes three-node cycle", "c", "a", true},
		{"closes two-node cycle", "b", "a", true},
		{"extends chain", "c", "d", false},
		{"parallel edge same direction", "a", "c", false},
		{"disconnected nodes", "x", "y", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cyclic, err := wouldCreateCycle(ctx, edges, tt.source, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.cyclic, cyclic)
		})
	}
}

func TestWouldCreateCycle_PropagatesStoreError(t *testing.T) {
	_, err := wouldCreateCycle(context.Background(), failingEdgeStore{}, "a", "b")
	assert.Error(t, err)
}
