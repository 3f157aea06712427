package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newGanttCmd(app *App) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "gantt VIEW",
		Short: "Render a timeline view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Planner.Gantt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r := app.renderer()
			r.Width = width
			fmt.Fprint(cmd.OutOrStdout(), r.Gantt(v))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 60, "Chart width in terminal cells")
	return cmd
}

func newCalendarCmd(app *App) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar VIEW",
		Short: "Render a month calendar view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at time.Time
			if month != "" {
				t, err := time.ParseInLocation("2006-01", month, app.Config.Location())
				if err != nil {
					return fmt.Errorf("--month must be YYYY-MM: %w", err)
				}
				at = t
			}
			v, err := app.Planner.Calendar(cmd.Context(), args[0], at)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), app.renderer().Calendar(v))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to show as YYYY-MM (default: current)")
	return cmd
}

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board VIEW",
		Short: "Render a status board view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Planner.Board(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), app.renderer().Board(v))
			return nil
		},
	}
}
