package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/cmd/cli/commands"
	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/metrics"
	"github.com/jakechorley/theatre-rota/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Theatre rota CLI - Assign surgical cases to anaesthetists",
		Long:  `A CLI tool for generating, publishing and rendering operating theatre rotas.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportInstanceCmd(app))
	rootCmd.AddCommand(commands.GenerateScheduleCmd(app))
	rootCmd.AddCommand(commands.PublishScheduleCmd(app))
	rootCmd.AddCommand(commands.ArchiveScheduleCmd(app))
	rootCmd.AddCommand(commands.CurrentScheduleCmd(app))
	rootCmd.AddCommand(commands.RenderScheduleCmd(app))
	rootCmd.AddCommand(commands.SolveFileCmd(app))

	if err := rootCmd.Execute(); err != nil {
		app.Close()
		os.Exit(1)
	}
}

// initApp sets up logger, config and metrics. The database and artifact store are
// connected by the commands that need them.
func initApp() error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("hospital_id", app.Cfg.HospitalID),
		zap.String("default_mode", string(app.Cfg.Solver.DefaultMode())))

	app.Registry = prometheus.NewRegistry()
	app.Metrics, err = metrics.NewPromRecorder(app.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	return nil
}
