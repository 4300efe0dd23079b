package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := Day(y, m, d)
	return &t
}

func TestTaskValidate_OK(t *testing.T) {
	task := &Task{ID: "a", Duration: 3, Status: TaskNotStarted, Priority: PriorityHigh,
		StartDate: datePtr(2024, 1, 1), EndDate: datePtr(2024, 1, 3)}
	assert.NoError(t, task.Validate())
}

func TestTaskValidate_Failures(t *testing.T) {
	cases := map[string]*Task{
		"missing id":    {Duration: 1},
		"zero duration": {ID: "a", Duration: 0},
		"negative":      {ID: "a", Duration: -2},
		"progress":      {ID: "a", Duration: 1, Progress: 120},
		"status":        {ID: "a", Duration: 1, Status: "blocked"},
		"priority":      {ID: "a", Duration: 1, Priority: "urgent"},
		"inverted":      {ID: "a", Duration: 1, StartDate: datePtr(2024, 1, 5), EndDate: datePtr(2024, 1, 4)},
	}
	for name, task := range cases {
		err := task.Validate()
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrInvalidTask, name)
	}
}

func TestTaskIsComplete(t *testing.T) {
	assert.True(t, (&Task{Status: TaskCompleted}).IsComplete())
	assert.True(t, (&Task{Status: TaskInProgress, Progress: 100}).IsComplete())
	assert.False(t, (&Task{Status: TaskInProgress, Progress: 99}).IsComplete())
}

func TestCaptureBaseline_DoesNotOverwrite(t *testing.T) {
	task := &Task{StartDate: datePtr(2024, 1, 1), EndDate: datePtr(2024, 1, 3)}
	task.CaptureBaseline()
	require.NotNil(t, task.BaselineStart)
	assert.Equal(t, Day(2024, 1, 1), *task.BaselineStart)

	task.StartDate = datePtr(2024, 2, 1)
	task.CaptureBaseline()
	assert.Equal(t, Day(2024, 1, 1), *task.BaselineStart)
}

func TestVariance(t *testing.T) {
	task := &Task{
		BaselineStart: datePtr(2024, 1, 1), BaselineEnd: datePtr(2024, 1, 3),
		StartDate: datePtr(2024, 1, 4), EndDate: datePtr(2024, 1, 2),
	}
	start, end := task.Variance()
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 3, *start)
	assert.Equal(t, -1, *end)

	start, end = (&Task{StartDate: datePtr(2024, 1, 4)}).Variance()
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestDependsOn(t *testing.T) {
	task := &Task{Dependencies: []Dependency{{PredecessorID: "x", Kind: FinishToStart}}}
	assert.True(t, task.DependsOn("x"))
	assert.False(t, task.DependsOn("y"))
}
