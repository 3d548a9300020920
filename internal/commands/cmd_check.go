package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/core/styles"
)

type CheckCmd struct {
	flags *Flags
}

// NewCheckCmd creates a new check command
func NewCheckCmd(flags *Flags) *CheckCmd {
	return &CheckCmd{flags: flags}
}

// Register adds the check command to the application
func (cmd *CheckCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "check",
		Usage:     "Toggle a checklist item for today",
		UsageText: "stride check <item> [--off]",
		Description: `Marks a checklist item done (or not done with --off). The change is
applied locally at once and persisted in a coalesced write, so several
quick toggles produce a single request.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "off",
				Usage: "mark the item not done instead",
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CheckCmd) run(ctx context.Context, c *cli.Command) error {
	app := cmd.flags.App

	item := c.Args().First()
	if item == "" {
		return fmt.Errorf("usage: stride check <item> [--off]")
	}

	if err := app.Progress.Load(ctx); err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	snap, err := app.Retrier.EnsureActive(ctx)
	if err != nil {
		return fmt.Errorf("no active program: %w", err)
	}

	checklist := snap.TodayLog.Checklist
	checklist[item] = !c.Bool("off")

	if _, err := app.Progress.UpdateChecklist(ctx, checklist, snap.TodayLog.Symptoms); err != nil {
		return fmt.Errorf("update checklist: %w", err)
	}

	// One-shot process: push the pending write out before exiting. A failed
	// write must surface here, not masquerade as success.
	if err := app.Progress.Flush(); err != nil {
		return fmt.Errorf("checklist not saved: %w", err)
	}

	updated, _ := app.Progress.ActiveProgram()
	fmt.Printf("%s %d/%d done today\n",
		styles.Success("ok"),
		updated.TodayLog.CompletedCount, updated.TodayLog.TotalCount)
	return nil
}
