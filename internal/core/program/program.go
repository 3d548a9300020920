// Package program defines the domain types for an active diet or
// lifestyle program and its daily progress logs.
package program

// Type identifies the kind of program a user is enrolled in.
type Type string

const (
	TypeDiet      Type = "diet"
	TypeLifestyle Type = "lifestyle"
)

// Status represents the lifecycle state of a program.
//
// Transitions: active <-> paused via explicit user action (always reconciled
// against the server, never optimistic), and active → completed once the
// current day index passes the program duration and the user confirms the
// final day.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// DateFormat is the calendar-date key format used for daily logs.
const DateFormat = "2006-01-02"

// Streak tracks consecutive days meeting the completion threshold.
type Streak struct {
	Current   int     `json:"current"`
	Longest   int     `json:"longest"`
	Threshold float64 `json:"threshold"`
}

// DailyLog is one calendar day's progress within a program.
type DailyLog struct {
	Date             string          `json:"date"`
	CompletedCount   int             `json:"completedCount"`
	TotalCount       int             `json:"totalCount"`
	CompletionRate   float64         `json:"completionRate"`
	Completed        bool            `json:"completed"`
	CelebrationShown bool            `json:"celebrationShown"`
	Checklist        map[string]bool `json:"checklist"`
	Symptoms         map[string]int  `json:"symptoms,omitempty"`
}

// Snapshot is the canonical state of the single active program.
//
// The progress store owns the snapshot and replaces it wholesale on every
// mutation; consumers only ever see complete values, never partial updates.
type Snapshot struct {
	ID              string              `json:"id"`
	ProgramID       string              `json:"programId"`
	Type            Type                `json:"type"`
	StartDate       string              `json:"startDate"`
	CurrentDayIndex int                 `json:"currentDayIndex"`
	DurationDays    int                 `json:"durationDays"`
	Status          Status              `json:"status"`
	Streak          Streak              `json:"streak"`
	Logs            map[string]DailyLog `json:"logs"`
	TodayLog        DailyLog            `json:"todayLog"`
}

// DaysLeft returns the number of days remaining including the current day.
// A day index past the program duration yields the same result as the final
// day; the value never goes negative.
func (s Snapshot) DaysLeft() int {
	day := s.CurrentDayIndex
	if day > s.DurationDays {
		day = s.DurationDays
	}
	left := s.DurationDays - day + 1
	if left < 0 {
		return 0
	}
	return left
}

// IsComplete reports whether the program has run past its final day.
func (s Snapshot) IsComplete() bool {
	return s.CurrentDayIndex > s.DurationDays
}

// Normalize ensures TodayLog is populated for the given calendar date,
// synthesizing an empty incomplete log when the logs map has no entry yet.
func (s *Snapshot) Normalize(today string) {
	if log, ok := s.Logs[today]; ok {
		s.TodayLog = log
		return
	}
	if s.TodayLog.Date == today {
		return
	}
	s.TodayLog = DailyLog{
		Date:      today,
		Checklist: map[string]bool{},
	}
}

// Clone returns a deep copy of the snapshot. The store publishes clones so
// no consumer can hold a mutable reference into the canonical state.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Logs = make(map[string]DailyLog, len(s.Logs))
	for date, log := range s.Logs {
		out.Logs[date] = log.clone()
	}
	out.TodayLog = s.TodayLog.clone()
	return out
}

func (l DailyLog) clone() DailyLog {
	out := l
	out.Checklist = make(map[string]bool, len(l.Checklist))
	for k, v := range l.Checklist {
		out.Checklist[k] = v
	}
	if l.Symptoms != nil {
		out.Symptoms = make(map[string]int, len(l.Symptoms))
		for k, v := range l.Symptoms {
			out.Symptoms[k] = v
		}
	}
	return out
}

// ChecklistStats computes the completed/total counts and completion rate for
// a checklist. The rate is 0 when the checklist is empty.
func ChecklistStats(checklist map[string]bool) (completed, total int, rate float64) {
	total = len(checklist)
	for _, done := range checklist {
		if done {
			completed++
		}
	}
	if total > 0 {
		rate = float64(completed) / float64(total)
	}
	return completed, total, rate
}
