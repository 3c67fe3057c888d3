package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusGated(t *testing.T) {
	assert.True(t, StatusInProgress.Gated())
	assert.True(t, StatusCompleted.Gated())
	assert.False(t, StatusPending.Gated())
	assert.False(t, StatusCancelled.Gated())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}

func TestCanonical(t *testing.T) {
	blocks := DependencyEdge{SourceID: "7", TargetID: "10", Relation: RelationBlocks}
	canonical := blocks.Canonical()

	assert.Equal(t, "10", canonical.SourceID)
	assert.Equal(t, "7", canonical.TargetID)
	assert.Equal(t, RelationBlockedBy, canonical.Relation)

	// Already canonical edges pass through unchanged
	assert.Equal(t, canonical, canonical.Canonical())
}

func TestChannelKeys(t *testing.T) {
	assert.Equal(t, "Task_42", TaskChannel("42"))
	assert.Equal(t, "User_u1", UserChannel("u1"))
}
