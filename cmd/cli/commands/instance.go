package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/pkg/core/services"
)

// SolveFileCmd creates the solveFile command
func SolveFileCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solveFile <instance.yaml>",
		Short: "Solve an instance file offline without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeFlag, _ := cmd.Flags().GetString("mode")
			budget, _ := cmd.Flags().GetDuration("budget")

			mode, err := parseMode(modeFlag)
			if err != nil {
				return err
			}

			result, inst, err := services.SolveInstanceFile(app.Ctx, args[0], app.Cfg, app.Logger, app.Metrics, mode, budget)
			if err != nil {
				return err
			}
			app.FlushMetrics()

			app.Logger.Debug("Instance solved", zap.String("hospital_id", inst.HospitalID))

			fmt.Printf("\nInstance: %s (%s to %s, %d demands, %d professionals)\n\n",
				args[0], inst.PeriodStart.Format(time.DateOnly), inst.PeriodEnd.Format(time.DateOnly),
				len(inst.Demands), len(inst.Professionals))
			printResult(os.Stdout, result.ResultData())
			return nil
		},
	}

	cmd.Flags().String("mode", "", "Solve mode: greedy or exact (defaults to the configured mode)")
	cmd.Flags().Duration("budget", 0, "Time budget for the exact solver (defaults to the configured budget)")

	return cmd
}

// ImportInstanceCmd creates the importInstance command
func ImportInstanceCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importInstance <instance.yaml>",
		Short: "Load the professionals and demands of an instance file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}

			inst, err := services.ImportInstanceFile(app.Ctx, database, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Imported %d professionals and %d demands for hospital %s\n\n",
				len(inst.Professionals), len(inst.Demands), inst.HospitalID)
			return nil
		},
	}
}

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}

			applied, err := database.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Println("Database is up to date.")
				return nil
			}
			for _, name := range applied {
				app.Logger.Info("Migration applied", zap.String("file", name))
				fmt.Printf("  ✓ %s\n", name)
			}
			return nil
		},
	}
}
