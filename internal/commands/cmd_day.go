package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/core/styles"
)

type DayCmd struct {
	flags *Flags
}

// NewDayCmd creates a new day command
func NewDayCmd(flags *Flags) *DayCmd {
	return &DayCmd{flags: flags}
}

// Register adds the day command to the application
func (cmd *DayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "day",
		Usage:     "Day-level operations for the active program",
		UsageText: "stride day complete",
		Commands: []*cli.Command{
			{
				Name:  "complete",
				Usage: "Mark the current program day as completed",
				Description: `Runs the day-completion transition on the server. The server owns the
streak and day-index math; on failure the local state is reconciled
with a full refresh. Completing an already-completed day is a no-op.`,
				Action: cmd.runComplete,
			},
		},
	})

	return app
}

func (cmd *DayCmd) runComplete(ctx context.Context, c *cli.Command) error {
	app := cmd.flags.App

	if err := app.Progress.Load(ctx); err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	if _, err := app.Retrier.EnsureActive(ctx); err != nil {
		return fmt.Errorf("no active program: %w", err)
	}

	result, err := app.Progress.CompleteDay(ctx)
	if err != nil {
		return err
	}

	if result.AlreadyCompleted {
		fmt.Println(styles.Subtle("Today is already completed."))
		return nil
	}

	fmt.Printf("%s day %d done, streak %d\n", styles.Success("✓"), result.DaysCompleted, result.Streak)
	if result.IsComplete {
		fmt.Println(styles.Title("Program complete!"))
		app.Progress.MarkCelebrationShown(ctx)
	}
	return nil
}
