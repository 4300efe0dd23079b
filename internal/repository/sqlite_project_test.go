package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_RoundTrip(t *testing.T) {
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	start, target := domain.Day(2024, 3, 4), domain.Day(2024, 6, 28)
	withTarget := testutil.NewTestProject("Launch", testutil.WithShortID("LCH01"),
		testutil.WithProjectStart(start), testutil.WithTargetDate(target))
	open := testutil.NewTestProject("Open Ended", testutil.WithShortID("OPN01"))
	open.TargetDate = nil
	require.NoError(t, repo.Create(ctx, withTarget))
	require.NoError(t, repo.Create(ctx, open))

	got, err := repo.GetByID(ctx, withTarget.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Name)
	assert.Equal(t, domain.ProjectActive, got.Status)
	assert.True(t, start.Equal(got.StartDate))
	require.NotNil(t, got.TargetDate)
	assert.True(t, target.Equal(*got.TargetDate))

	got, err = repo.GetByShortID(ctx, "opn01")
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)
	assert.Nil(t, got.TargetDate)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProjectRepo_Update(t *testing.T) {
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	proj := testutil.NewTestProject("Before")
	require.NoError(t, repo.Create(ctx, proj))

	proj.Name = "After"
	proj.Status = domain.ProjectPaused
	proj.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, proj))

	got, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, domain.ProjectPaused, got.Status)
}

func TestProjectRepo_MissingRows(t *testing.T) {
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByShortID(ctx, "NOPE01")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, testutil.NewTestProject("Ghost")), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), ErrNotFound)
}

func TestProjectRepo_DuplicateShortID(t *testing.T) {
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	first := testutil.NewTestProject("One", testutil.WithShortID("DUP01"))
	second := testutil.NewTestProject("Two", testutil.WithShortID("DUP01"))
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicate)

	other := testutil.NewTestProject("Three", testutil.WithShortID("OTH01"))
	require.NoError(t, repo.Create(ctx, other))
	other.ShortID = "DUP01"
	assert.ErrorIs(t, repo.Update(ctx, other), ErrDuplicate)
}
