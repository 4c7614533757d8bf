package storage

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mpataki/tada/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStorage(t)

	run := &models.Run{Selector: "all", InputDir: "/labs", OutputDir: "/out", DBType: "oracle", SkipDB: true, Status: models.RunStatusRunning}
	id, err := s.CreateRun(run)
	require.NoError(t, err)
	run.ID = id

	got, err := s.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, "all", got.Selector)
	assert.True(t, got.SkipDB)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)

	now := time.Now()
	run.Status = models.RunStatusFailed
	run.CompletedAt = &now
	require.NoError(t, s.UpdateRun(run))

	got, err = s.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, now, *got.CompletedAt, time.Second)
}

func TestOutcomes(t *testing.T) {
	s := newTestStorage(t)

	runID, err := s.CreateRun(&models.Run{Selector: "4", InputDir: ".", OutputDir: ".", DBType: "sqlite", Status: models.RunStatusRunning})
	require.NoError(t, err)

	first := &models.ExerciseOutcome{RunID: runID, ExerciseID: "4", SourcePath: "Ex 4.pdf", Status: models.OutcomeStatusPending, Stage: models.StageExtract, SequenceNum: 1}
	first.ID, err = s.CreateOutcome(first)
	require.NoError(t, err)

	second := &models.ExerciseOutcome{RunID: runID, ExerciseID: "5", SourcePath: "Ex 5.pdf", Status: models.OutcomeStatusPending, Stage: models.StageExtract, SequenceNum: 2}
	second.ID, err = s.CreateOutcome(second)
	require.NoError(t, err)

	first.Status = models.OutcomeStatusComplete
	first.Stage = models.StageDone
	first.DocxPath = "/out/ex4_24BCE5561.docx"
	first.Statements = 3
	require.NoError(t, s.UpdateOutcome(first))

	second.Status = models.OutcomeStatusFailed
	second.Stage = models.StageGenerate
	second.Error = "all models exhausted"
	require.NoError(t, s.UpdateOutcome(second))

	outcomes, err := s.GetOutcomesForRun(runID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "4", outcomes[0].ExerciseID)
	assert.Equal(t, "/out/ex4_24BCE5561.docx", outcomes[0].DocxPath)
	assert.Equal(t, 3, outcomes[0].Statements)
	assert.True(t, outcomes[1].Failed())
	assert.Equal(t, models.StageGenerate, outcomes[1].Stage)
	assert.Equal(t, "all models exhausted", outcomes[1].Error)

	_, err = s.CreateOutcome(&models.ExerciseOutcome{RunID: runID, ExerciseID: "6", SourcePath: "x", Status: models.OutcomeStatusPending, Stage: models.StageExtract, SequenceNum: 2})
	assert.Error(t, err, "sequence numbers are unique per run")
}

func TestListAndDeleteRuns(t *testing.T) {
	s := newTestStorage(t)

	var ids []int64
	for _, sel := range []string{"1", "2", "3"} {
		id, err := s.CreateRun(&models.Run{Selector: sel, InputDir: ".", OutputDir: ".", DBType: "oracle", Status: models.RunStatusComplete})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := s.CreateOutcome(&models.ExerciseOutcome{RunID: ids[1], ExerciseID: "2", SourcePath: "x", Status: models.OutcomeStatusComplete, Stage: models.StageDone, SequenceNum: 1})
	require.NoError(t, err)

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "3", runs[0].Selector, "newest first")

	require.NoError(t, s.DeleteRun(ids[1]))
	_, err = s.GetRun(ids[1])
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	outcomes, err := s.GetOutcomesForRun(ids[1])
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	assert.Error(t, s.DeleteRun(999))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	assert.NoError(t, s.migrate())
}

func TestFormatTimeAgo(t *testing.T) {
	assert.Equal(t, "just now", FormatTimeAgo(time.Now()))
	assert.Equal(t, "5m ago", FormatTimeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3h ago", FormatTimeAgo(time.Now().Add(-3*time.Hour-time.Minute)))
}
