package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/theatre-rota/pkg/core/services"
	"github.com/jakechorley/theatre-rota/pkg/render"
)

// PublishScheduleCmd creates the publishSchedule command
func PublishScheduleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishSchedule <version_id>",
		Short: "Publish a draft version and record its assignments on the demands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}

			version, err := services.PublishSchedule(app.Ctx, database, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Schedule published!\n\n")
			printVersion(os.Stdout, *version)
			fmt.Println()
			return nil
		},
	}
}

// ArchiveScheduleCmd creates the archiveSchedule command
func ArchiveScheduleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archiveSchedule <version_id>",
		Short: "Archive a published version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}

			version, err := services.ArchiveSchedule(app.Ctx, database, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Schedule archived!\n\n")
			printVersion(os.Stdout, *version)
			fmt.Println()
			return nil
		},
	}
}

// CurrentScheduleCmd creates the currentSchedule command
func CurrentScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currentSchedule",
		Short: "Show the authoritative published schedule of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")

			periodStart, periodEnd, err := parsePeriod(start, end)
			if err != nil {
				return err
			}

			database, err := app.Database()
			if err != nil {
				return err
			}

			version, err := services.CurrentSchedule(app.Ctx, database, app.Cfg, app.Logger, periodStart, periodEnd)
			if err != nil {
				return err
			}

			fmt.Println()
			printVersion(os.Stdout, *version)
			printResult(os.Stdout, version.ResultData)
			return nil
		},
	}

	cmd.Flags().String("start", "", "Period start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("end", "", "Period end, exclusive (defaults to a week after start)")
	cmd.MarkFlagRequired("start")

	return cmd
}

// RenderScheduleCmd creates the renderSchedule command
func RenderScheduleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "renderSchedule <version_id>",
		Short: "Render a published version to PDF and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}
			store, err := app.Artifacts()
			if err != nil {
				return err
			}

			version, err := services.RenderSchedule(app.Ctx, database, render.NewPDFRenderer(), store, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Schedule rendered!\n\n")
			printVersion(os.Stdout, *version)
			fmt.Println()
			return nil
		},
	}
}
