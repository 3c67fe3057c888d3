package workflow

import (
	"context"

	"github.com/taskhive/taskhive/pkg/ports"
)

// wouldCreateCycle reports whether adding the edge "source BlockedBy target"
// would close a cycle, i.e. whether source is already a transitive
// predecessor of target.
//
// Depth-first walk over the stored BlockedBy edges; each task is visited at
// most once.
func wouldCreateCycle(ctx context.Context, edges ports.EdgeStore, source, target string) (bool, error) {
	if source == target {
		return true, nil
	}

	visited := map[string]struct{}{target: {}}
	stack := []string{target}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		all, err := edges.EdgesFor(ctx, current)
		if err != nil {
			return false, err
		}

		for _, edge := range all {
			if edge.SourceID != current {
				continue
			}
			pred := edge.TargetID
			if pred == source {
				return true, nil
			}
			if _, seen := visited[pred]; seen {
				continue
			}
			visited[pred] = struct{}{}
			stack = append(stack, pred)
		}
	}

	return false, nil
}
