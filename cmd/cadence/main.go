package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/cadence/internal/cli"
	"github.com/alexanderramin/cadence/internal/config"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var database *sql.DB
	defer func() {
		if database != nil {
			database.Close()
		}
	}()

	app := &cli.App{}

	// Detect interactive terminal for confirmation prompts.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Services are wired after flags are parsed so --db and --log-level apply.
	app.Connect = func(cfg config.Config) error {
		level, err := config.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		database, err = db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		logger.Debug("database_opened", "path", cfg.DBPath)

		// Wire repositories
		projectRepo := repository.NewSQLiteProjectRepo(database)
		phaseRepo := repository.NewSQLitePhaseRepo(database)
		milestoneRepo := repository.NewSQLiteMilestoneRepo(database)
		taskRepo := repository.NewSQLiteTaskRepo(database)

		// Wire unit of work for transactional operations
		uow := db.NewSQLiteUnitOfWork(database)

		var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
		if cfg.Log.UseCases {
			observer = service.NewLogUseCaseObserver(logger, cfg.Log.SlowAfter)
		}
		publisher := service.NewLogPublisher(logger)

		app.Projects = service.NewProjectService(projectRepo)
		app.Plan = service.NewPlanService(phaseRepo, milestoneRepo)
		app.Tasks = service.NewTaskService(taskRepo, projectRepo, milestoneRepo, uow, observer)
		app.Schedule = service.NewScheduleService(taskRepo, uow,
			service.ScheduleOptions{MaxAttempts: cfg.Schedule.MaxAttempts}, publisher, observer)
		app.Analysis = service.NewAnalysisService(projectRepo, phaseRepo, milestoneRepo, taskRepo,
			cfg.HealthSettings(), observer)
		app.Imports = service.NewImportService(uow,
			service.ImportOptions{StrictDependencies: cfg.Import.StrictDependencies}, publisher, observer)
		return nil
	}

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
