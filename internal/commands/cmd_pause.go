package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/core/styles"
)

type PauseCmd struct {
	flags *Flags
}

// NewPauseCmd creates pause and resume commands
func NewPauseCmd(flags *Flags) *PauseCmd {
	return &PauseCmd{flags: flags}
}

// Register adds the pause and resume commands to the application
func (cmd *PauseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "pause",
			Usage:     "Pause the active program",
			UsageText: "stride pause",
			Description: `Pauses the program on the server. Pause is never applied optimistically;
the local snapshot is reconciled with a refresh once the server confirms.`,
			Action: cmd.runPause,
		},
		&cli.Command{
			Name:      "resume",
			Usage:     "Resume a paused program",
			UsageText: "stride resume",
			Action:    cmd.runResume,
		},
	)

	return app
}

func (cmd *PauseCmd) runPause(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.App.Progress.Pause(ctx); err != nil {
		return err
	}
	fmt.Println(styles.Warning("Program paused."))
	return nil
}

func (cmd *PauseCmd) runResume(ctx context.Context, c *cli.Command) error {
	if err := cmd.flags.App.Progress.Resume(ctx); err != nil {
		return err
	}
	fmt.Println(styles.Success("Program resumed."))
	return nil
}
