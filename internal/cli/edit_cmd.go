package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"planview/internal/edit"
	"planview/internal/service"
)

type gestureFlags struct {
	pixels float64
	ppu    float64
	dryRun bool
}

func (f *gestureFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.pixels, "pixels", 0, "Drag distance in pixels (negative moves earlier)")
	cmd.Flags().Float64Var(&f.ppu, "ppu", 1, "Pixels per time unit; the default makes --pixels a unit count")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Preview without writing")
}

func newMoveCmd(app *App) *cobra.Command {
	var f gestureFlags

	cmd := &cobra.Command{
		Use:   "move VIEW ITEM",
		Short: "Shift an item's start and end",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGesture(cmd, app, args, string(edit.Move), f)
		},
	}
	f.register(cmd)
	return cmd
}

func newResizeCmd(app *App) *cobra.Command {
	var (
		f    gestureFlags
		edge string
	)

	cmd := &cobra.Command{
		Use:   "resize VIEW ITEM",
		Short: "Drag an item's start or end edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGesture(cmd, app, args, edge, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&edge, "edge", "end", "Edge to drag: start or end")
	return cmd
}

func runGesture(cmd *cobra.Command, app *App, args []string, kind string, f gestureFlags) error {
	res, err := app.Planner.Gesture(cmd.Context(), args[0], service.GestureRequest{
		ItemID:        args[1],
		Kind:          kind,
		PixelDelta:    f.pixels,
		PixelsPerUnit: f.ppu,
		Commit:        !f.dryRun,
	})
	if err != nil {
		return err
	}
	printGesture(cmd.OutOrStdout(), res)
	return nil
}

func printGesture(w io.Writer, res service.GestureResult) {
	switch {
	case !res.Changed:
		fmt.Fprintf(w, "%s: no change\n", res.ItemID)
	case res.Committed:
		fmt.Fprintf(w, "%s: %s → %s (%d writes)\n", res.ItemID, res.Start, res.End, len(res.Writes))
	default:
		fmt.Fprintf(w, "%s: would become %s → %s\n", res.ItemID, res.Start, res.End)
	}
}

func newCollapseCmd(app *App, collapse bool) *cobra.Command {
	use, short := "collapse VIEW GROUP", "Collapse a group or board column"
	if !collapse {
		use, short = "expand VIEW GROUP", "Expand a group or board column"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Planner.SetGroup(cmd.Context(), args[0], args[1], collapse); err != nil {
				return err
			}
			state := "expanded"
			if collapse {
				state = "collapsed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", args[0], args[1], state)
			return nil
		},
	}
}

func newCardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "card VIEW ITEM COLUMN",
		Short: "Move a board card to another column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := app.Planner.MoveCard(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %q\n", w.Ref, w.Property, w.Value)
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently committed edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Planner.History(cmd.Context(), n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no edits yet")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-10s %s.%s = %s\n",
					e.CommittedAt.Local().Format("2006-01-02 15:04"), e.View, e.Ref, e.Property, e.Value)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 20, "How many entries to show")
	return cmd
}
