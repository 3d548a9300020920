package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts program_id and trigger from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if programID := GetProgramID(ctx); programID != "" {
		e.Str("program_id", programID)
	}

	if trigger := GetTrigger(ctx); trigger != "" {
		e.Str("trigger", trigger)
	}
}
