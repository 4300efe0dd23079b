package cli

import (
	"fmt"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newCriticalPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "critical-path PROJECT",
		Aliases: []string{"cp"},
		Short:   "Show float per task and the chain that drives the finish date",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			report, err := app.Analysis.CriticalPath(ctx, p.ID)
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.ListByProject(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCriticalPath(report, formatter.TitlesOf(tasks)))
			return nil
		},
	}
}

func newHealthCmd(app *App) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "health PROJECT",
		Short: "Roll task health up to milestones, phases and the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			today := app.today()
			if asOf != "" {
				d, err := parseDateFlag("as-of", asOf)
				if err != nil {
					return err
				}
				today = d
			}
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			report, err := app.Analysis.Health(ctx, p.ID, today)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatHealth(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate as of this date instead of today (YYYY-MM-DD)")

	return cmd
}
