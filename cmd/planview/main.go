package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"planview/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{
		IsTerminal: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
	}
	defer app.Close()

	return cli.NewRootCmd(app).Execute()
}
