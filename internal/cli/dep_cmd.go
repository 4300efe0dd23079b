package cli

import (
	"github.com/spf13/cobra"
)

func newDepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Add or remove task dependencies",
	}
	cmd.AddCommand(newDepAddCmd(app), newDepRemoveCmd(app))
	return cmd
}

func newDepAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add TASK PREDECESSOR[:KIND[:LAG]]",
		Short: "Make TASK depend on PREDECESSOR and cascade the new dates",
		Example: `  cadence dep add WEB01#3 '#2'
  cadence dep add WEB01#3 '#1:SS:2'
  cadence dep add WEB01#4 WEB01#3:FF:-1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			d, err := resolveDependency(ctx, app, t.ProjectID, args[1])
			if err != nil {
				return err
			}
			res, err := app.Schedule.AddDependency(ctx, t.ID, d)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}
}

func newDepRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TASK PREDECESSOR",
		Short: "Drop the edge from PREDECESSOR to TASK",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			pred, err := resolvePredecessor(ctx, app, t.ProjectID, args[1])
			if err != nil {
				return err
			}
			res, err := app.Schedule.RemoveDependency(ctx, t.ID, pred.ID)
			if err != nil {
				return err
			}
			return printEditResult(cmd, app, res)
		},
	}
}
