package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/core/styles"
	"github.com/strideapp/stride/internal/remote"
)

type StatusCmd struct {
	flags *Flags
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags) *StatusCmd {
	return &StatusCmd{flags: flags}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show the active program and today's progress",
		UsageText: "stride status [--wait]",
		Description: `Loads the active program, serving the cached snapshot when fresh and
refreshing in the background otherwise.

With --wait, a missing program is retried a few times before being
reported as not found, for contexts that expect one to exist.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "retry while the program snapshot is missing",
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	app := cmd.flags.App

	if err := app.Progress.Load(ctx); err != nil {
		if _, ok := app.Progress.ActiveProgram(); !ok {
			return fmt.Errorf("load program: %w", err)
		}
		// A stale snapshot survived the failed fetch; show it.
		fmt.Println(styles.Warning("offline: showing last known progress"))
	}

	if c.Bool("wait") {
		if _, err := app.Retrier.EnsureActive(ctx); err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				fmt.Println(styles.Subtle("No active program."))
				return nil
			}
			return err
		}
	}

	snap, ok := app.Progress.ActiveProgram()
	if !ok {
		fmt.Println(styles.Subtle("No active program."))
		return nil
	}

	fmt.Println(styles.RenderStatus(snap))
	return nil
}
