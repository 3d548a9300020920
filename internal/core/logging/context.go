package logging

import "context"

type contextKey string

const (
	programIDKey contextKey = "program_id"
	triggerKey   contextKey = "trigger"
)

// WithProgramID adds the active program ID to the context.
func WithProgramID(ctx context.Context, programID string) context.Context {
	return context.WithValue(ctx, programIDKey, programID)
}

// WithTrigger records what initiated an operation (user action, focus,
// background refresh) for log correlation.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey, trigger)
}

// GetProgramID retrieves the program ID from the context.
// Returns empty string if not present.
func GetProgramID(ctx context.Context) string {
	if id, ok := ctx.Value(programIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTrigger retrieves the operation trigger from the context.
// Returns empty string if not present.
func GetTrigger(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey).(string); ok {
		return t
	}
	return ""
}
