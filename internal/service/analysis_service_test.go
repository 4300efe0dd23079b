package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysis_CriticalPath(t *testing.T) {
	f := newFixture(t)
	p, a, b, c := chain(t, f)
	side := f.task(t, p.ID, "Side", 1)

	report, err := f.analysis.CriticalPath(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, report.Path)
	assert.True(t, domain.Day(2024, 1, 12).Equal(report.ProjectFinish))

	fl, ok := report.Float(side.ID)
	require.True(t, ok)
	assert.Equal(t, 11, fl.TotalFloat)
	assert.False(t, fl.IsCritical)
	assert.Contains(t, f.observer.names(), "analysis.critical_path")
}

func TestAnalysis_CriticalPathEmptyProject(t *testing.T) {
	f := newFixture(t)
	p := f.project(t)
	report, err := f.analysis.CriticalPath(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Path)
	assert.True(t, p.StartDate.Equal(report.ProjectStart))
}

func TestAnalysis_Health(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, a, b, c := chain(t, f)

	_, err := f.tasks.SetStatus(ctx, a.ID, domain.TaskCompleted)
	require.NoError(t, err)

	report, err := f.analysis.Health(ctx, p.ID, domain.Day(2024, 1, 12))
	require.NoError(t, err)
	assert.Equal(t, scheduler.LevelTasks, report.AggregatedOver)
	assert.Equal(t, domain.HealthOnTrack, report.Tasks[a.ID])
	assert.Equal(t, domain.HealthCritical, report.Tasks[b.ID], "ended 2024-01-10 without progress")
	assert.Equal(t, domain.HealthAtRisk, report.Tasks[c.ID], "due within three days")
	// (100 + 25 + 50) / 3 - 15 - 8
	assert.InDelta(t, 35.33, report.Score, 0.01)
	assert.Equal(t, domain.HealthAtRisk, report.Project)
}

func TestAnalysis_MilestoneRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)
	m := &domain.Milestone{ProjectID: p.ID, Title: "Launch"}
	require.NoError(t, f.plan.AddMilestone(ctx, m))
	for range 3 {
		require.NoError(t, f.tasks.Create(ctx, &domain.Task{ProjectID: p.ID, MilestoneID: &m.ID, Title: "t", Duration: 30}))
	}

	report, err := f.analysis.Health(ctx, p.ID, domain.Day(2024, 1, 2))
	require.NoError(t, err)
	require.Len(t, report.Milestones, 1)
	assert.Equal(t, 3, report.Milestones[0].Members)
	assert.Equal(t, scheduler.LevelMilestones, report.AggregatedOver)
}

func TestAnalysis_UnknownProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.analysis.Health(context.Background(), "missing", domain.Day(2024, 1, 1))
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
