package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/strideapp/stride/internal/tui"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Open the interactive tracker",
		UsageText: "stride tui",
		Action:    cmd.run,
	})

	return app
}

func (cmd *TuiCmd) run(ctx context.Context, c *cli.Command) error {
	app := cmd.flags.App

	model := tui.New(app.Progress, app.Focus)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	// Push out any write still sitting in the debounce window.
	if err := app.Progress.Flush(); err != nil {
		return fmt.Errorf("final checklist write failed: %w", err)
	}
	return nil
}
