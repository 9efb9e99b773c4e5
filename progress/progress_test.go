package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerUpdate(t *testing.T) {
	var seen []Progress
	ctx, tracker := WithNewTracker(context.Background(), "run-1", func(p Progress) {
		seen = append(seen, p)
	})

	fromCtx, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, tracker, fromCtx)

	tracker.Update(Delta{Proposed: 1, Suspended: 1})
	tracker.Update(Delta{Executed: 1, Edited: 1})

	snapshot := tracker.Snapshot()
	assert.EqualValues(t, "run-1", snapshot.RunID)
	assert.EqualValues(t, 1, snapshot.ProposedCalls)
	assert.EqualValues(t, 1, snapshot.Suspensions)
	assert.EqualValues(t, 1, snapshot.ExecutedCalls)
	assert.EqualValues(t, 1, snapshot.EditedCalls)
	assert.EqualValues(t, 2, len(seen))
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tracker *Progress
	tracker.Update(Delta{Proposed: 1})
	assert.EqualValues(t, Progress{}, tracker.Snapshot())

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
