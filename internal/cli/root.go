package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/config"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects service.ProjectService
	Plan     service.PlanService
	Tasks    service.TaskService
	Schedule service.ScheduleService
	Analysis service.AnalysisService
	Imports  service.ImportService

	// Connect wires the services above once flags and configuration are
	// known. Leave it nil when the App is already wired, as in tests.
	Connect func(cfg config.Config) error

	// IsInteractive reports whether prompts can be shown. Nil means never.
	IsInteractive func() bool

	// Now defaults to the wall clock; tests pin it.
	Now func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) today() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "cadence" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "cadence",
		Short:         "Dependency-driven task scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Connect == nil {
				return nil
			}
			v, err := config.New(configPath)
			if err != nil {
				return err
			}
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := app.Connect(cfg); err != nil {
				return fmt.Errorf("starting up: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.cadence/config.yaml)")
	root.PersistentFlags().String("db", "", "SQLite database path (overrides db_path)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newProjectCmd(app),
		newPhaseCmd(app),
		newMilestoneCmd(app),
		newTaskCmd(app),
		newDepCmd(app),
		newScheduleCmd(app),
		newCriticalPathCmd(app),
		newHealthCmd(app),
		newImportCmd(app),
	)

	return root
}
