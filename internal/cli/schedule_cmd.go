package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Change task dates and cascade them through dependents",
	}

	cmd.AddCommand(
		newScheduleDurationCmd(app),
		newScheduleStartCmd(app),
		newScheduleOverrideCmd(app),
		newScheduleClearOverrideCmd(app),
		newSchedulePreviewCmd(app),
		newScheduleAllCmd(app),
	)

	return cmd
}

// printEditResult renders r with task titles from its project.
func printEditResult(cmd *cobra.Command, app *App, r *service.EditResult) error {
	tasks, err := app.Tasks.ListByProject(cmd.Context(), r.ProjectID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEditResult(r, formatter.TitlesOf(tasks)))
	return nil
}

func newScheduleDurationCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "duration TASK DAYS",
		Short: "Change a task's duration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], err)
			}
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Schedule.SetDuration(ctx, t.ID, days)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}
}

func newScheduleStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start TASK DATE",
		Short: "Move the start of a task that has no predecessors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start, err := parseDateFlag("start", args[1])
			if err != nil {
				return err
			}
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Schedule.SetStart(ctx, t.ID, start)
			if errors.Is(err, service.ErrConstrainedTask) {
				return fmt.Errorf("%w; use `schedule override` to pin it", err)
			}
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}
}

func newScheduleOverrideCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "override TASK START END",
		Short: "Pin a task to fixed dates; violated constraints are reported",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start, err := parseDateFlag("start", args[1])
			if err != nil {
				return err
			}
			end, err := parseDateFlag("end", args[2])
			if err != nil {
				return err
			}
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Schedule.OverrideDates(ctx, t.ID, start, end)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}
}

func newScheduleClearOverrideCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-override TASK",
		Short: "Unpin a task so its dependencies drive it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Schedule.ClearOverride(ctx, t.ID)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}
}

func newSchedulePreviewCmd(app *App) *cobra.Command {
	var (
		duration          int
		start, override   string
		addDep, removeDep string
		clearOverride     bool
	)

	cmd := &cobra.Command{
		Use:   "preview TASK",
		Short: "Show what an edit would change without saving it",
		Example: `  cadence schedule preview WEB01#2 --duration 8
  cadence schedule preview WEB01#4 --override 2024-02-01:2024-02-03
  cadence schedule preview WEB01#4 --add-dep '#3:FS:1'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}

			edit := service.Edit{TaskID: t.ID}
			set := 0
			flags := cmd.Flags()
			if flags.Changed("duration") {
				set++
				edit.Kind, edit.Duration = service.EditSetDuration, duration
			}
			if start != "" {
				set++
				edit.Kind = service.EditSetStart
				if edit.Start, err = parseDateFlag("start", start); err != nil {
					return err
				}
			}
			if override != "" {
				set++
				edit.Kind = service.EditOverrideDates
				s, e, ok := strings.Cut(override, ":")
				if !ok {
					return fmt.Errorf("--override wants START:END, got %q", override)
				}
				if edit.Start, err = parseDateFlag("override", s); err != nil {
					return err
				}
				if edit.End, err = parseDateFlag("override", e); err != nil {
					return err
				}
			}
			if clearOverride {
				set++
				edit.Kind = service.EditClearOverride
			}
			if addDep != "" {
				set++
				edit.Kind = service.EditAddDependency
				if edit.Dependency, err = resolveDependency(ctx, app, t.ProjectID, addDep); err != nil {
					return err
				}
			}
			if removeDep != "" {
				set++
				edit.Kind = service.EditRemoveDependency
				pred, err := resolvePredecessor(ctx, app, t.ProjectID, removeDep)
				if err != nil {
					return err
				}
				edit.PredecessorID = pred.ID
			}
			if set != 1 {
				return errors.New("choose exactly one of --duration, --start, --override, --clear-override, --add-dep, --remove-dep")
			}

			res, err := app.Schedule.PreviewCascade(ctx, edit)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "New duration in days")
	cmd.Flags().StringVar(&start, "start", "", "New start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&override, "override", "", "Pinned dates as START:END")
	cmd.Flags().BoolVar(&clearOverride, "clear-override", false, "Unpin the task")
	cmd.Flags().StringVar(&addDep, "add-dep", "", "Predecessor to add, TASK[:KIND[:LAG]]")
	cmd.Flags().StringVar(&removeDep, "remove-dep", "", "Predecessor to remove")

	return cmd
}

func newScheduleAllCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "all PROJECT",
		Short: "Recompute every date in a project from its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !app.interactive() {
					return errors.New("refusing to reschedule without --yes in a non-interactive session")
				}
				confirmed := false
				if err := confirmForm(fmt.Sprintf("Recompute all dates in %s?", p.Name), &confirmed).Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			res, err := app.Schedule.Reschedule(ctx, p.ID)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
