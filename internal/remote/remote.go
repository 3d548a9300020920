// Package remote defines the client for the progress API that owns the
// server-side truth about a user's active program.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/strideapp/stride/internal/core/program"
)

// ErrNotFound is returned when the server reports no active program.
// Callers must not treat it as authoritative on its own; the progress store
// corroborates it against the cache before clearing state.
var ErrNotFound = errors.New("no active program")

// APIError is a typed error carrying the HTTP status of a failed call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("progress api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("progress api: status %d: %s", e.StatusCode, e.Message)
}

// IsAuthExpired reports whether err is a 401-class failure. Auth expiry is
// treated as transient: token refresh is expected to resolve it, so it never
// justifies discarding a known-good snapshot.
func IsAuthExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// TrackerView is the server's description of today's tracker for a program:
// the checklist items to render plus optional symptom prompts.
type TrackerView struct {
	Items        []TrackerItem `json:"items"`
	Symptoms     []SymptomItem `json:"symptoms,omitempty"`
	ShowSymptoms bool          `json:"showSymptoms"`
}

// TrackerItem is one checklist entry definition.
type TrackerItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// SymptomItem is one symptom rating prompt.
type SymptomItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Max   int    `json:"max"`
}

// DayResult is the server's response to a day-completion request. The server
// computes streak and day-index transitions; the client never guesses them.
type DayResult struct {
	Success          bool    `json:"success"`
	AlreadyCompleted bool    `json:"alreadyCompleted"`
	CurrentDay       int     `json:"currentDay"`
	DaysCompleted    int     `json:"daysCompleted"`
	Streak           int     `json:"streak"`
	IsComplete       bool    `json:"isComplete"`
	CompletionRate   float64 `json:"completionRate"`
}

// ChecklistUpdate is the payload for a coalesced daily-log write.
type ChecklistUpdate struct {
	Checklist map[string]bool `json:"checklist"`
	Symptoms  map[string]int  `json:"symptoms,omitempty"`
}

// Service is the remote progress API surface consumed by the sync core.
type Service interface {
	// GetActiveProgram returns the active program snapshot, or ErrNotFound
	// when the user has none.
	GetActiveProgram(ctx context.Context) (program.Snapshot, error)

	// GetTodayTracker returns the checklist/symptom definitions for today.
	GetTodayTracker(ctx context.Context, programType program.Type) (TrackerView, error)

	// UpdateChecklist persists today's checklist and symptom state.
	UpdateChecklist(ctx context.Context, programType program.Type, update ChecklistUpdate) error

	// CompleteDay marks the current day done. Idempotent server-side; a
	// repeat call reports AlreadyCompleted rather than failing.
	CompleteDay(ctx context.Context, programType program.Type) (DayResult, error)

	// MarkCelebrationShown records that the completion celebration was
	// displayed, so it is not replayed on other devices.
	MarkCelebrationShown(ctx context.Context, programType program.Type) error

	PauseProgram(ctx context.Context) error
	ResumeProgram(ctx context.Context) error
	StopProgram(ctx context.Context, programID string) error
}
