package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"planview/internal/config"
	appLog "planview/internal/log"
	"planview/internal/render"
	"planview/internal/service"
)

// App holds what the commands share. Config and Planner are filled in by the
// root command from --config unless they are already set.
type App struct {
	ConfigPath string
	LogLevel   string

	// IsTerminal reports whether stdout is a terminal; styled output is used
	// only then.
	IsTerminal func() bool

	Config  *config.Config
	Planner *service.Planner

	opened bool
}

// NewRootCmd creates the top-level "planview" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "planview",
		Short:         "Gantt, calendar and board views over markdown notes and ICS feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}
	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "planview.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	root.AddCommand(
		newServeCmd(app),
		newGanttCmd(app),
		newCalendarCmd(app),
		newBoardCmd(app),
		newMoveCmd(app),
		newResizeCmd(app),
		newCollapseCmd(app, true),
		newCollapseCmd(app, false),
		newCardCmd(app),
		newHistoryCmd(app),
		newCaptureCmd(app),
	)
	return root
}

func (a *App) open() error {
	if a.Config == nil {
		cfg, err := config.Load(a.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.Config = cfg
	}

	level := a.Config.LogLevel
	if a.LogLevel != "" {
		level = a.LogLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	if a.Planner == nil {
		p, err := service.Open(a.Config)
		if err != nil {
			return err
		}
		a.Planner = p
		a.opened = true
	}
	return nil
}

// Close releases the planner if the root command opened it.
func (a *App) Close() error {
	if !a.opened {
		return nil
	}
	a.opened = false
	return a.Planner.Close()
}

func (a *App) renderer() *render.Renderer {
	plain := a.IsTerminal == nil || !a.IsTerminal()
	return render.New(plain)
}
