package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/core/styles"
)

type StopCmd struct {
	flags *Flags
}

// NewStopCmd creates a new stop command
func NewStopCmd(flags *Flags) *StopCmd {
	return &StopCmd{flags: flags}
}

// Register adds the stop command to the application
func (cmd *StopCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "stop",
		Usage:     "Stop the active program and clear local state",
		UsageText: "stride stop [--yes]",
		Description: `Ends the program on the server and clears the cached snapshot. This is
the only operation that intentionally publishes an empty state.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip the confirmation prompt",
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *StopCmd) run(ctx context.Context, c *cli.Command) error {
	app := cmd.flags.App

	if err := app.Progress.Load(ctx); err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	snap, ok := app.Progress.ActiveProgram()
	if !ok {
		fmt.Println(styles.Subtle("No active program."))
		return nil
	}

	if !c.Bool("yes") {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Stop your %s program on day %d?", snap.Type, snap.CurrentDayIndex)).
			Description("Progress stays on the server, but the program ends now.").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("confirm stop: %w", err)
		}
		if !confirmed {
			return nil
		}
	}

	if err := app.Progress.Stop(ctx); err != nil {
		return err
	}

	fmt.Println(styles.Success("Program stopped."))
	return nil
}
