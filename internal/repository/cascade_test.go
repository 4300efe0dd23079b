package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCascadeDelete_ProjectToChildren verifies that deleting a project removes
// its phases, milestones and tasks.
func TestCascadeDelete_ProjectToChildren(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(db)
	phaseRepo := NewSQLitePhaseRepo(db)
	msRepo := NewSQLiteMilestoneRepo(db)
	taskRepo := NewSQLiteTaskRepo(db)

	proj := testutil.NewTestProject("CascadeProj")
	require.NoError(t, projRepo.Create(ctx, proj))
	ph := testutil.NewTestPhase(proj.ID, "Build", 0)
	require.NoError(t, phaseRepo.Create(ctx, ph))
	ms := testutil.NewTestMilestone(proj.ID, "Beta", testutil.InPhase(ph.ID))
	require.NoError(t, msRepo.Create(ctx, ms))
	task := testutil.NewTestTask(proj.ID, "Ship", testutil.WithMilestone(ms.ID))
	require.NoError(t, taskRepo.Create(ctx, task))

	require.NoError(t, projRepo.Delete(ctx, proj.ID))

	_, err := phaseRepo.GetByID(ctx, ph.ID)
	assert.Error(t, err, "phase should be cascade-deleted with its project")
	_, err = msRepo.GetByID(ctx, ms.ID)
	assert.Error(t, err, "milestone should be cascade-deleted with its project")
	_, err = taskRepo.GetByID(ctx, task.ID)
	assert.Error(t, err, "task should be cascade-deleted with its project")
}

// TestCascadeDelete_PhaseDetachesMilestones verifies phases -> milestones SET NULL.
func TestCascadeDelete_PhaseDetachesMilestones(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(db)
	phaseRepo := NewSQLitePhaseRepo(db)
	msRepo := NewSQLiteMilestoneRepo(db)

	proj := testutil.NewTestProject("Detach")
	require.NoError(t, projRepo.Create(ctx, proj))
	ph := testutil.NewTestPhase(proj.ID, "Design", 0)
	require.NoError(t, phaseRepo.Create(ctx, ph))
	ms := testutil.NewTestMilestone(proj.ID, "Mockups", testutil.InPhase(ph.ID))
	require.NoError(t, msRepo.Create(ctx, ms))

	require.NoError(t, phaseRepo.Delete(ctx, ph.ID))

	fetched, err := msRepo.GetByID(ctx, ms.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.PhaseID)
}

// TestCascadeDelete_MilestoneDetachesTasks verifies milestones -> tasks SET NULL.
func TestCascadeDelete_MilestoneDetachesTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(db)
	msRepo := NewSQLiteMilestoneRepo(db)
	taskRepo := NewSQLiteTaskRepo(db)

	proj := testutil.NewTestProject("Orphan")
	require.NoError(t, projRepo.Create(ctx, proj))
	ms := testutil.NewTestMilestone(proj.ID, "Alpha")
	require.NoError(t, msRepo.Create(ctx, ms))
	task := testutil.NewTestTask(proj.ID, "Spec", testutil.WithMilestone(ms.ID))
	require.NoError(t, taskRepo.Create(ctx, task))

	require.NoError(t, msRepo.Delete(ctx, ms.ID))

	fetched, err := taskRepo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.MilestoneID)
}

// TestCascadeDelete_TaskToDependencies verifies that a deleted task disappears
// from the dependency lists of its successors.
func TestCascadeDelete_TaskToDependencies(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(db)
	taskRepo := NewSQLiteTaskRepo(db)
	depRepo := NewSQLiteDependencyRepo(db)

	proj := testutil.NewTestProject("CascadeDeps")
	require.NoError(t, projRepo.Create(ctx, proj))

	a := testutil.NewTestTask(proj.ID, "A")
	require.NoError(t, taskRepo.Create(ctx, a))
	b := testutil.NewTestTask(proj.ID, "B", testutil.WithDependency(a.ID, domain.FinishToStart, 0))
	require.NoError(t, taskRepo.Create(ctx, b))

	require.NoError(t, taskRepo.Delete(ctx, a.ID))

	preds, err := depRepo.ListPredecessors(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, preds)
}
