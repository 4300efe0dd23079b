package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long: `Manage tasks.

Tasks are referenced by ID or as PROJECT#N, where N is the number shown in
the first column of "task list". Inside --dep values "#N" refers to the
task's own project.`,
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskProgressCmd(app),
		newTaskStatusCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var (
		projectRef, title, milestoneRef string
		start, end, priority            string
		duration                        int
		override                        bool
		deps                            []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task; its dates follow from its dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, projectRef)
			if err != nil {
				return err
			}

			t := &domain.Task{
				ProjectID:      p.ID,
				Title:          title,
				Duration:       duration,
				ManualOverride: override,
				Priority:       domain.Priority(strings.ToLower(priority)),
			}
			if t.StartDate, err = parseOptionalDate("start", start); err != nil {
				return err
			}
			if t.EndDate, err = parseOptionalDate("end", end); err != nil {
				return err
			}
			if milestoneRef != "" {
				m, err := resolveMilestone(ctx, app, p.ID, milestoneRef)
				if err != nil {
					return err
				}
				t.MilestoneID = &m.ID
			}
			for _, raw := range deps {
				d, err := resolveDependency(ctx, app, p.ID, raw)
				if err != nil {
					return err
				}
				t.Dependencies = append(t.Dependencies, d)
			}

			if err := app.Tasks.Create(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s#%d ", p.DisplayID(), t.OrderIndex)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTask(t))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectRef, "project", "", "Project short ID or ID")
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().IntVar(&duration, "duration", 1, "Duration in days")
	cmd.Flags().StringVar(&milestoneRef, "milestone", "", "Milestone title or ID")
	cmd.Flags().StringArrayVar(&deps, "dep", nil, "Predecessor as TASK[:KIND[:LAG]], e.g. #1:FS:2 (repeatable)")
	cmd.Flags().StringVar(&start, "start", "", "Start date for unconstrained or pinned tasks (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date, used with --override (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&override, "override", false, "Pin --start/--end regardless of dependencies")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high or critical")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List a project's tasks with their schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.ListByProject(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskList(tasks))
			return nil
		},
	}
}

func newTaskProgressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress TASK PERCENT",
		Short: "Record task progress (0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("invalid progress %q: %w", args[1], err)
			}
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err = app.Tasks.SetProgress(ctx, t.ID, pct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d%% %s\n", t.Title, t.Progress, formatter.TaskStatusPill(t.Status))
			return nil
		},
	}
}

func newTaskStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status TASK STATUS",
		Short: "Set task status (not_started, in_progress, completed, on_hold, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			status := domain.TaskStatus(strings.ToLower(args[1]))
			if !domain.ValidTaskStatuses[status] {
				return fmt.Errorf("unknown status %q", args[1])
			}
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err = app.Tasks.SetStatus(ctx, t.ID, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t.Title, formatter.TaskStatusPill(t.Status))
			return nil
		},
	}
}
