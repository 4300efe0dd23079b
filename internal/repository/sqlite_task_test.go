package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Tasks")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	ms := testutil.NewTestMilestone(proj.ID, "M1")
	require.NoError(t, NewSQLiteMilestoneRepo(db).Create(ctx, ms))
	repo := NewSQLiteTaskRepo(db)

	pred := testutil.NewTestTask(proj.ID, "Design", testutil.WithDuration(3), testutil.StartingOn(domain.Day(2024, 1, 1)))
	require.NoError(t, repo.Create(ctx, pred))

	task := testutil.NewTestTask(proj.ID, "Build",
		testutil.WithDuration(5),
		testutil.StartingOn(domain.Day(2024, 1, 4)),
		testutil.WithMilestone(ms.ID),
		testutil.WithProgress(40),
		testutil.WithTaskStatus(domain.TaskInProgress),
		testutil.WithPriority(domain.PriorityHigh),
		testutil.WithManualOverride(),
		testutil.WithDependency(pred.ID, domain.FinishToStart, 1),
	)
	task.CaptureBaseline()
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Build", got.Title)
	assert.Equal(t, 5, got.Duration)
	assert.True(t, domain.SameDate(task.StartDate, got.StartDate))
	assert.True(t, domain.SameDate(task.EndDate, got.EndDate))
	assert.True(t, domain.SameDate(task.StartDate, got.BaselineStart))
	assert.True(t, domain.SameDate(task.EndDate, got.BaselineEnd))
	require.NotNil(t, got.MilestoneID)
	assert.Equal(t, ms.ID, *got.MilestoneID)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, domain.TaskInProgress, got.Status)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.True(t, got.ManualOverride)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, []domain.Dependency{{PredecessorID: pred.ID, Kind: domain.FinishToStart, LagDays: 1}}, got.Dependencies)
}

func TestTaskRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, err := NewSQLiteTaskRepo(db).GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTaskRepo_ListByProject_AttachesDependencies(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("List")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	repo := NewSQLiteTaskRepo(db)

	a := testutil.NewTestTask(proj.ID, "A", testutil.WithOrderIndex(1))
	b := testutil.NewTestTask(proj.ID, "B", testutil.WithOrderIndex(2))
	c := testutil.NewTestTask(proj.ID, "C", testutil.WithOrderIndex(3),
		testutil.WithDependency(b.ID, domain.StartToStart, 0),
		testutil.WithDependency(a.ID, domain.FinishToStart, 2))
	for _, task := range []*domain.Task{a, b, c} {
		require.NoError(t, repo.Create(ctx, task))
	}

	tasks, err := repo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
	assert.Empty(t, tasks[0].Dependencies)
	require.Len(t, tasks[2].Dependencies, 2)
	assert.Equal(t, b.ID, tasks[2].Dependencies[0].PredecessorID)
	assert.Equal(t, a.ID, tasks[2].Dependencies[1].PredecessorID)
}

func TestTaskRepo_Update_BumpsVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Versioned")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	repo := NewSQLiteTaskRepo(db)

	task := testutil.NewTestTask(proj.ID, "Write")
	require.NoError(t, repo.Create(ctx, task))

	task.Progress = 60
	require.NoError(t, repo.Update(ctx, task))
	assert.Equal(t, 2, task.Version)

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress)
	assert.Equal(t, 2, got.Version)
}

func TestTaskRepo_Update_StaleSnapshot(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Stale")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	repo := NewSQLiteTaskRepo(db)

	task := testutil.NewTestTask(proj.ID, "Write")
	require.NoError(t, repo.Create(ctx, task))

	first, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)

	first.Progress = 10
	require.NoError(t, repo.Update(ctx, first))

	second.Progress = 20
	err = repo.Update(ctx, second)
	assert.True(t, errors.Is(err, ErrStaleSnapshot))
	assert.Equal(t, 1, second.Version, "version untouched on failure")
}

func TestTaskRepo_ApplyDateUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Dates")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	repo := NewSQLiteTaskRepo(db)

	task := testutil.NewTestTask(proj.ID, "Move", testutil.WithDuration(2), testutil.StartingOn(domain.Day(2024, 2, 1)))
	require.NoError(t, repo.Create(ctx, task))

	start, end := domain.Day(2024, 2, 5), domain.Day(2024, 2, 6)
	require.NoError(t, repo.ApplyDateUpdate(ctx, task.ID, &start, &end, 1))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, start.Equal(*got.StartDate))
	assert.True(t, end.Equal(*got.EndDate))
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "2024-02-01", domain.FormatDate(got.BaselineStart), "baseline keeps the first dates")

	err = repo.ApplyDateUpdate(ctx, task.ID, &start, &end, 1)
	assert.True(t, errors.Is(err, ErrStaleSnapshot))

	err = repo.ApplyDateUpdate(ctx, "missing", &start, &end, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTaskRepo_ApplyDateUpdate_ClearsDates(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Clear")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	repo := NewSQLiteTaskRepo(db)

	task := testutil.NewTestTask(proj.ID, "Drop", testutil.StartingOn(domain.Day(2024, 2, 1)))
	require.NoError(t, repo.Create(ctx, task))
	require.NoError(t, repo.ApplyDateUpdate(ctx, task.ID, nil, nil, 1))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.NotNil(t, got.BaselineStart, "baseline survives date changes")
}

func TestTaskRepo_BaselineFollowsFirstDates(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Baseline")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))
	repo := NewSQLiteTaskRepo(db)

	dated := testutil.NewTestTask(proj.ID, "Dated", testutil.StartingOn(domain.Day(2024, 2, 1)))
	require.NoError(t, repo.Create(ctx, dated))
	got, err := repo.GetByID(ctx, dated.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", domain.FormatDate(got.BaselineStart), "create captures the baseline")
	assert.Equal(t, "2024-02-01", domain.FormatDate(got.BaselineEnd))

	undated := testutil.NewTestTask(proj.ID, "Undated", testutil.WithDuration(2))
	require.NoError(t, repo.Create(ctx, undated))
	got, err = repo.GetByID(ctx, undated.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BaselineStart)

	first, firstEnd := domain.Day(2024, 3, 4), domain.Day(2024, 3, 5)
	require.NoError(t, repo.ApplyDateUpdate(ctx, undated.ID, &first, &firstEnd, 1))
	later, laterEnd := domain.Day(2024, 3, 11), domain.Day(2024, 3, 12)
	require.NoError(t, repo.ApplyDateUpdate(ctx, undated.ID, &later, &laterEnd, 2))

	got, err = repo.GetByID(ctx, undated.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", domain.FormatDate(got.StartDate))
	assert.Equal(t, "2024-03-04", domain.FormatDate(got.BaselineStart))
	assert.Equal(t, "2024-03-05", domain.FormatDate(got.BaselineEnd))
}

func TestTaskRepo_RejectsZeroDuration(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj := testutil.NewTestProject("Check")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, proj))

	task := testutil.NewTestTask(proj.ID, "Zero", testutil.WithDuration(0))
	assert.Error(t, NewSQLiteTaskRepo(db).Create(ctx, task))
}
