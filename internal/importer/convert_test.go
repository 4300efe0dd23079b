package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var importToday = domain.Day(2024, 3, 15)

func TestConvert_MinimalProject(t *testing.T) {
	conv, err := Convert(validMinimalSchema(), Options{}, importToday)
	require.NoError(t, err)

	assert.NotEmpty(t, conv.Project.ID)
	assert.Equal(t, "WEB01", conv.Project.ShortID)
	assert.Equal(t, domain.ProjectActive, conv.Project.Status)
	assert.True(t, domain.Day(2024, 1, 1).Equal(conv.Project.StartDate))
	assert.Nil(t, conv.Project.TargetDate)

	require.Len(t, conv.Milestones, 1)
	require.Len(t, conv.Tasks, 1)
	task := conv.Tasks[0]
	assert.Equal(t, conv.Project.ID, task.ProjectID)
	assert.Equal(t, conv.RefMap["t1"], task.ID)
	require.NotNil(t, task.MilestoneID)
	assert.Equal(t, conv.Milestones[0].ID, *task.MilestoneID)
	assert.Equal(t, []string{task.ID}, conv.Milestones[0].TaskIDs)
	assert.Equal(t, 3, task.Duration)
	assert.Equal(t, "2024-01-03", domain.FormatDate(task.EndDate), "end derived from start and duration")
	assert.Equal(t, domain.TaskNotStarted, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.True(t, domain.SameDate(task.StartDate, task.BaselineStart))
	assert.Empty(t, conv.Warnings)
}

func TestConvert_PhasesMilestonesHierarchy(t *testing.T) {
	s := &ImportSchema{
		Project: ProjectImport{ShortID: "app01", Name: "App", StartDate: "2024-01-01"},
		Phases:  []PhaseImport{{Ref: "design", Title: "Design"}, {Ref: "build", Title: "Build", Order: 1}},
		Milestones: []MilestoneImport{
			{Ref: "m1", PhaseRef: ptrStr("design"), Title: "Mockups"},
			{Ref: "m2", PhaseRef: ptrStr("build"), Title: "Beta"},
			{Ref: "m3", PhaseRef: ptrStr("build"), Title: "GA", Order: 1},
		},
		Tasks: []TaskImport{{Ref: "t", MilestoneRef: ptrStr("m3"), Title: "Ship"}},
	}
	conv, err := Convert(s, Options{}, importToday)
	require.NoError(t, err)

	assert.Equal(t, "APP01", conv.Project.ShortID)
	require.Len(t, conv.Phases, 2)
	assert.Equal(t, []string{conv.Milestones[0].ID}, conv.Phases[0].MilestoneIDs)
	assert.Equal(t, []string{conv.Milestones[1].ID, conv.Milestones[2].ID}, conv.Phases[1].MilestoneIDs)
	require.NotNil(t, conv.Milestones[1].PhaseID)
	assert.Equal(t, conv.Phases[1].ID, *conv.Milestones[1].PhaseID)
}

func TestConvert_DependenciesResolveRefs(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks = append(s.Tasks,
		TaskImport{Ref: "t2", Title: "Build", Duration: ptrInt(5),
			DependsOn: []string{"t1:FS:0", "t3:start_to_start:-1", "t1:SS:2"}},
		TaskImport{Ref: "t3", Title: "Review"},
	)
	conv, err := Convert(s, Options{}, importToday)
	require.NoError(t, err)

	build := conv.Tasks[1]
	require.Len(t, build.Dependencies, 2, "second edge to t1 is dropped")
	assert.Equal(t, domain.Dependency{PredecessorID: conv.RefMap["t1"], Kind: domain.FinishToStart}, build.Dependencies[0])
	assert.Equal(t, domain.Dependency{PredecessorID: conv.RefMap["t3"], Kind: domain.StartToStart, LagDays: -1}, build.Dependencies[1])
	assert.Equal(t, 2, build.OrderIndex)
}

func TestConvert_UnknownRefsBecomeWarnings(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks[0].DependsOn = []string{"ghost:FS:1"}
	s.Tasks[0].ParentRef = ptrStr("nobody")

	conv, err := Convert(s, Options{}, importToday)
	require.NoError(t, err)
	assert.Empty(t, conv.Tasks[0].Dependencies)
	assert.Nil(t, conv.Tasks[0].ParentTaskID)
	require.Len(t, conv.Warnings, 2)
	kinds := []WarningKind{conv.Warnings[0].Kind, conv.Warnings[1].Kind}
	assert.ElementsMatch(t, []WarningKind{WarnUnknownDependency, WarnUnknownParent}, kinds)
	for _, w := range conv.Warnings {
		assert.Contains(t, w.String(), `task "t1"`)
	}
}

func TestConvert_LenientDecodeNormalizes(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks = append(s.Tasks, TaskImport{Ref: "t2", Title: "Build", DependsOn: []string{"t1:bogus:soon", "t1"}})

	conv, err := Convert(s, Options{}, importToday)
	require.NoError(t, err)
	require.Len(t, conv.Tasks[1].Dependencies, 1)
	assert.Equal(t, domain.FinishToStart, conv.Tasks[1].Dependencies[0].Kind)
	assert.Equal(t, 0, conv.Tasks[1].Dependencies[0].LagDays)

	require.Len(t, conv.Warnings, 2)
	for _, w := range conv.Warnings {
		assert.Equal(t, WarnNormalizedDependency, w.Kind)
	}
	assert.Contains(t, conv.Warnings[0].String(), `"t1:bogus:soon" read as t1:FS:0`)
}

func TestConvert_StrictDecodeRejects(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks = append(s.Tasks, TaskImport{Ref: "t2", Title: "Build", DependsOn: []string{"t1:bogus:0"}})

	_, err := Convert(s, Options{StrictDependencies: true}, importToday)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedDependency))
}

func TestConvert_DateDerivation(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks = []TaskImport{
		{Ref: "end-only", Title: "E", Duration: ptrInt(4), EndDate: ptrStr("2024-02-10")},
		{Ref: "both", Title: "B", StartDate: ptrStr("2024-02-01"), EndDate: ptrStr("2024-02-05")},
		{Ref: "none", Title: "N", Duration: ptrInt(3)},
	}
	conv, err := Convert(s, Options{}, importToday)
	require.NoError(t, err)

	endOnly, both, none := conv.Tasks[0], conv.Tasks[1], conv.Tasks[2]
	assert.Equal(t, "2024-02-07", domain.FormatDate(endOnly.StartDate))
	assert.Equal(t, 5, both.Duration, "duration inferred from both dates")
	assert.Equal(t, "2024-03-15", domain.FormatDate(none.StartDate), "undated rows anchor at today")
	assert.Equal(t, "2024-03-15", domain.FormatDate(none.EndDate))
}

func TestLoadImportSchema_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"project": {"short_id": "WEB01", "name": "Website", "start_date": "2024-01-01"},
		"tasks": [
			{"ref": "a", "title": "A", "duration": 5, "start_date": "2024-01-01"},
			{"ref": "b", "title": "B", "duration": 5, "depends_on": ["a:FS:0"]}
		]
	}`), 0o644))

	yamlPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`project:
  short_id: WEB01
  name: Website
  start_date: "2024-01-01"
tasks:
  - ref: a
    title: A
    duration: 5
    start_date: "2024-01-01"
  - ref: b
    title: B
    duration: 5
    depends_on: ["a:FS:0"]
`), 0o644))

	for _, path := range []string{jsonPath, yamlPath} {
		s, err := LoadImportSchema(path)
		require.NoError(t, err, path)
		assert.Equal(t, "Website", s.Project.Name)
		require.Len(t, s.Tasks, 2)
		assert.Equal(t, 5, *s.Tasks[1].Duration)
		assert.Equal(t, []string{"a:FS:0"}, s.Tasks[1].DependsOn)
	}
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("x.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("dir/x.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("x.json"))
	assert.Equal(t, FormatJSON, FormatForPath("x"))
}
