package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"planview/internal/capture"
	appLog "planview/internal/log"
	"planview/internal/refresh"
	"planview/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and HTML views, refreshing sources on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				app.Config.Listen = listen
			}
			cfg := app.Config
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"week_start", cfg.WeekStart,
				"refresh", cfg.RefreshCron,
				"ics_count", len(cfg.ICS),
				"views", len(cfg.Views),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched, err := refresh.NewScheduler(cfg.RefreshCron, cfg.Location(), 2*time.Minute, func(ctx context.Context) {
				_ = app.Planner.Refresh(ctx)
			})
			if err != nil {
				return err
			}
			sched.Trigger()
			sched.Start()
			defer func() {
				<-sched.Stop().Done()
			}()

			srv := web.NewServer(cfg, app.Planner)
			srv.Capture = capture.Func(cfg.Capture)
			srv.NextRefresh = sched.Next
			if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			appLog.Info("planview exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

func newCaptureCmd(app *App) *cobra.Command {
	var (
		out   string
		month string
		mono  bool
	)

	cmd := &cobra.Command{
		Use:   "capture VIEW",
		Short: "Screenshot a view to PNG with headless Chromium",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := app.Planner.Kind(name); err != nil {
				return err
			}
			if out == "" {
				out = name + ".png"
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}

			base, stop, err := web.NewServer(app.Config, app.Planner).ServeLoopback()
			if err != nil {
				return err
			}
			defer stop()

			cfg := app.Config.Capture
			if err := capture.PNG(cmd.Context(), capture.Options{
				URL:        web.PageURL(base, name, month),
				OutputPath: out,
				Width:      cfg.Width,
				Height:     cfg.Height,
				Timeout:    cfg.Timeout,
				Mono:       mono || cfg.Mono,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG path (default VIEW.png)")
	cmd.Flags().StringVar(&month, "month", "", "Calendar month as YYYY-MM")
	cmd.Flags().BoolVar(&mono, "mono", false, "Reduce to black and red ink on white")
	return cmd
}
