package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	j.now = func() time.Time { return base }

	id, err := j.StartRun(ctx, "save a note")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, j.RecordStep(ctx, StepRecord{RunID: id, Iteration: 1, Position: 1, Step: "a.b()", Status: StatusOK, Output: "done"}))
	require.NoError(t, j.RecordStep(ctx, StepRecord{RunID: id, Iteration: 1, Position: 2, Step: "c.d()", Status: StatusSkipped}))
	require.NoError(t, j.FinishRun(ctx, id, true, "Goal achieved successfully."))

	runs, err := j.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "save a note", runs[0].Goal)
	assert.True(t, runs[0].Achieved)
	assert.Equal(t, 2, runs[0].Steps)
	require.NotNil(t, runs[0].FinishedAt)
	assert.True(t, runs[0].StartedAt.Equal(base))

	steps, err := j.Steps(ctx, id)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "c.d()", steps[1].Step)
	assert.Equal(t, StatusSkipped, steps[1].Status)
}

func TestRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	first, err := j.StartRun(ctx, "one")
	require.NoError(t, err)
	second, err := j.StartRun(ctx, "two")
	require.NoError(t, err)

	runs, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second, runs[0].ID)
	assert.Nil(t, runs[0].FinishedAt)
	assert.NotEqual(t, first, second)
}

func TestFinishUnknownRun(t *testing.T) {
	j := openTest(t)
	err := j.FinishRun(context.Background(), "missing", false, "")
	assert.ErrorIs(t, err, errRunNotFound)
}
