package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/pkg/core/engine"
	"github.com/jakechorley/theatre-rota/pkg/core/services"
)

// GenerateScheduleCmd creates the generateSchedule command
func GenerateScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateSchedule",
		Short: "Solve a period and store the result as a new draft version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			modeFlag, _ := cmd.Flags().GetString("mode")
			budget, _ := cmd.Flags().GetDuration("budget")
			jobID, _ := cmd.Flags().GetString("job-id")
			retries, _ := cmd.Flags().GetInt("retries")

			periodStart, periodEnd, err := parsePeriod(start, end)
			if err != nil {
				return err
			}
			mode, err := parseMode(modeFlag)
			if err != nil {
				return err
			}

			database, err := app.Database()
			if err != nil {
				return err
			}

			req := services.GenerateRequest{
				PeriodStart: periodStart,
				PeriodEnd:   periodEnd,
				Mode:        mode,
				TimeBudget:  budget,
				JobID:       jobID,
			}

			var result *services.GenerateResult
			for attempt := 0; ; attempt++ {
				result, err = services.GenerateSchedule(app.Ctx, database, app.Cfg, app.Logger, app.Metrics, req)
				if errors.Is(err, engine.ErrStaleSnapshot) && attempt < retries {
					app.Logger.Warn("Professional data changed during solve, retrying", zap.Int("attempt", attempt+1))
					continue
				}
				break
			}
			if err != nil {
				return err
			}
			app.FlushMetrics()

			fmt.Printf("\n✓ Draft schedule created!\n\n")
			printVersion(os.Stdout, result.Version)
			printResult(os.Stdout, result.Version.ResultData)

			return nil
		},
	}

	cmd.Flags().String("start", "", "Period start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("end", "", "Period end, exclusive (defaults to a week after start)")
	cmd.Flags().String("mode", "", "Solve mode: greedy or exact (defaults to the configured mode)")
	cmd.Flags().Duration("budget", 0, "Time budget for the exact solver (defaults to the configured budget)")
	cmd.Flags().String("job-id", "", "Job id recorded on the draft (defaults to a new uuid)")
	cmd.Flags().Int("retries", 3, "Times to retry when professional data changes during the solve")
	cmd.MarkFlagRequired("start")

	return cmd
}
