package cli

import (
	"fmt"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/spf13/cobra"
)

func newPhaseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Manage project phases",
	}
	cmd.AddCommand(newPhaseAddCmd(app))
	return cmd
}

func newPhaseAddCmd(app *App) *cobra.Command {
	var projectRef, title string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a phase to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, projectRef)
			if err != nil {
				return err
			}
			existing, err := app.Plan.ListPhases(ctx, p.ID)
			if err != nil {
				return err
			}
			ph := &domain.Phase{ProjectID: p.ID, Title: title, OrderIndex: len(existing) + 1}
			if err := app.Plan.AddPhase(ctx, ph); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added phase %s to %s\n", ph.Title, p.DisplayID())
			return nil
		},
	}

	cmd.Flags().StringVar(&projectRef, "project", "", "Project short ID or ID")
	cmd.Flags().StringVar(&title, "title", "", "Phase title")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newMilestoneCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Manage milestones",
	}
	cmd.AddCommand(newMilestoneAddCmd(app))
	return cmd
}

func newMilestoneAddCmd(app *App) *cobra.Command {
	var projectRef, title, phaseRef string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a milestone, optionally inside a phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, projectRef)
			if err != nil {
				return err
			}
			existing, err := app.Plan.ListMilestones(ctx, p.ID)
			if err != nil {
				return err
			}
			m := &domain.Milestone{ProjectID: p.ID, Title: title, OrderIndex: len(existing) + 1}
			if phaseRef != "" {
				ph, err := resolvePhase(ctx, app, p.ID, phaseRef)
				if err != nil {
					return err
				}
				m.PhaseID = &ph.ID
			}
			if err := app.Plan.AddMilestone(ctx, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added milestone %s to %s\n", m.Title, p.DisplayID())
			return nil
		},
	}

	cmd.Flags().StringVar(&projectRef, "project", "", "Project short ID or ID")
	cmd.Flags().StringVar(&title, "title", "", "Milestone title")
	cmd.Flags().StringVar(&phaseRef, "phase", "", "Phase title or ID")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}
