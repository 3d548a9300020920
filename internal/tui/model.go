// Package tui renders the interactive tracker for the active program.
//
// The model is a thin consumer of the progress store: every mutation routes
// through the store's operations, and the rendered state follows the store's
// published snapshots via its subscription channel.
package tui

import (
	"context"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/strideapp/stride/internal/core/logging"
	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/progress"
	"github.com/strideapp/stride/internal/remote"
)

// storeEventMsg wraps a progress store notification.
type storeEventMsg progress.Event

// trackerMsg carries today's tracker definitions.
type trackerMsg struct {
	view remote.TrackerView
	err  error
}

// dayCompletedMsg carries a day-completion result.
type dayCompletedMsg struct {
	result remote.DayResult
	err    error
}

// Model is the tracker view.
type Model struct {
	store  *progress.Store
	focus  *progress.FocusRefresher
	events <-chan progress.Event

	snapshot  *program.Snapshot
	checklist map[string]bool // view-local copy, rolled back on write failure
	prev      map[string]bool // state before the first unsettled toggle
	lastSeq   uint64          // sequence of this view's latest mutation
	items     []remote.TrackerItem
	cursor    int
	statusMsg string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int
	log     zerolog.Logger
}

// New creates the tracker model over a wired store.
func New(store *progress.Store, focus *progress.FocusRefresher) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		store:     store,
		focus:     focus,
		events:    store.Subscribe(),
		checklist: map[string]bool{},
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		log:       logging.Component("tui"),
	}
}

// Init starts the initial load and event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadCmd(),
		m.waitForEvent(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.FocusMsg:
		// The view regained visibility; let the focus refresher decide
		// whether a background refresh is warranted.
		expected := ""
		if m.snapshot != nil {
			expected = m.snapshot.ProgramID
		}
		m.focus.OnFocus(expected)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case storeEventMsg:
		return m.handleStoreEvent(progress.Event(msg))

	case trackerMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("tracker fetch failed")
			return m, m.waitForEvent()
		}
		m.items = msg.view.Items
		return m, nil

	case dayCompletedMsg:
		if msg.err != nil {
			m.statusMsg = "Day completion failed; progress was re-synced."
			return m, nil
		}
		if msg.result.AlreadyCompleted {
			m.statusMsg = "Today is already completed."
			return m, nil
		}
		m.statusMsg = "Day complete!"
		if msg.result.IsComplete {
			m.statusMsg = "Program complete!"
			m.store.MarkCelebrationShown(context.Background())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if err := m.store.Flush(); err != nil {
			m.log.Warn().Err(err).Msg("final checklist write failed")
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.itemKeys())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m.toggleCurrent()

	case key.Matches(msg, m.keys.Complete):
		return m, m.completeDayCmd()

	case key.Matches(msg, m.keys.Pause):
		return m, m.togglePauseCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	}
	return m, nil
}

func (m Model) handleStoreEvent(ev progress.Event) (tea.Model, tea.Cmd) {
	switch {
	case ev.Settled && ev.Err != nil:
		// The coalesced write failed: the store keeps its optimistic value,
		// and this view restores its own pre-toggle copy.
		if m.prev != nil {
			m.checklist = m.prev
			m.prev = nil
			m.statusMsg = "Couldn't save; your last change was undone."
		} else {
			m.statusMsg = "Sync problem; showing last known progress."
		}
		return m, m.waitForEvent()

	case ev.Settled:
		if ev.Seq >= m.lastSeq {
			// Every toggle up to lastSeq reached the server; the rollback
			// baseline is no longer needed.
			m.prev = nil
		}
		return m, m.waitForEvent()

	case ev.Err != nil:
		m.statusMsg = "Sync problem; showing last known progress."
		return m, m.waitForEvent()

	case ev.Seq != 0:
		// Echo of this view's own optimistic mutation. The local checklist
		// already reflects it, and the rollback baseline must survive until
		// the write settles.
		m.snapshot = ev.Snapshot
		return m, m.waitForEvent()
	}

	m.snapshot = ev.Snapshot
	if ev.Snapshot != nil {
		m.checklist = cloneChecklist(ev.Snapshot.TodayLog.Checklist)
	} else {
		m.checklist = map[string]bool{}
	}
	m.prev = nil
	return m, m.waitForEvent()
}

func (m Model) toggleCurrent() (tea.Model, tea.Cmd) {
	keys := m.itemKeys()
	if len(keys) == 0 || m.cursor >= len(keys) {
		return m, nil
	}

	item := keys[m.cursor]
	if m.prev == nil {
		// Rollback baseline: the state before the first toggle of an
		// unsettled burst. Held until the coalesced write settles.
		m.prev = cloneChecklist(m.checklist)
	}
	m.checklist = cloneChecklist(m.checklist)
	m.checklist[item] = !m.checklist[item]

	// UpdateChecklist only mutates memory and arms the debounce timer, so
	// calling it here keeps the sequence bookkeeping in the model.
	ctx := logging.WithTrigger(context.Background(), "toggle")
	seq, err := m.store.UpdateChecklist(ctx, cloneChecklist(m.checklist), nil)
	if err != nil {
		m.log.Warn().Err(err).Msg("checklist update failed")
	}
	if seq > m.lastSeq {
		m.lastSeq = seq
	}
	return m, nil
}

// itemKeys returns the checklist keys in render order: tracker definition
// order when known, sorted keys otherwise.
func (m Model) itemKeys() []string {
	if len(m.items) > 0 {
		keys := make([]string, 0, len(m.items))
		for _, item := range m.items {
			keys = append(keys, item.Key)
		}
		return keys
	}
	keys := make([]string, 0, len(m.checklist))
	for k := range m.checklist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Model) itemLabel(key string) string {
	for _, item := range m.items {
		if item.Key == key {
			return item.Label
		}
	}
	return key
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := logging.WithTrigger(context.Background(), "tui-load")
		if err := m.store.Load(ctx); err != nil {
			m.log.Warn().Err(err).Msg("initial load failed")
		}
		view, err := m.store.TodayTracker(ctx)
		return trackerMsg{view: view, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := logging.WithTrigger(context.Background(), "manual")
		if err := m.store.Refresh(ctx); err != nil {
			m.log.Warn().Err(err).Msg("manual refresh failed")
		}
		return nil
	}
}

func (m Model) completeDayCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := logging.WithTrigger(context.Background(), "complete-day")
		result, err := m.store.CompleteDay(ctx)
		return dayCompletedMsg{result: result, err: err}
	}
}

func (m Model) togglePauseCmd() tea.Cmd {
	paused := m.snapshot != nil && m.snapshot.Status == program.StatusPaused
	return func() tea.Msg {
		ctx := logging.WithTrigger(context.Background(), "pause-toggle")
		var err error
		if paused {
			err = m.store.Resume(ctx)
		} else {
			err = m.store.Pause(ctx)
		}
		if err != nil {
			m.log.Warn().Err(err).Msg("pause toggle failed")
		}
		return nil
	}
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return storeEventMsg(ev)
	}
}

func cloneChecklist(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
