// Package progress implements the client-side synchronization core for the
// active program: a single owned snapshot kept fresh against the remote
// progress API, with optimistic local mutations and coalesced writes.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/strideapp/stride/internal/core/cache"
	"github.com/strideapp/stride/internal/core/logging"
	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/remote"
)

// CacheKey is the single snapshot-cache key the store populates.
const CacheKey = "program_progress"

// ErrNoActiveProgram is returned by operations that require an active
// snapshot when none is held.
var ErrNoActiveProgram = errors.New("no active program loaded")

// ErrNotDietProgram is returned by CompleteDay for lifestyle programs, which
// have no day-completion transition.
var ErrNotDietProgram = errors.New("day completion requires a diet program")

// Phase is the store's fetch state. Only one load or refresh runs at a time;
// callers arriving while a fetch is in flight share its outcome through the
// published state instead of issuing duplicate requests.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseRefreshing Phase = "refreshing"
)

// Event is a change notification delivered to subscribers.
//
// Seq ties an event to a checklist mutation: the optimistic publish and the
// outcome of the coalesced write covering it carry the same sequence number.
// Fetch-derived events carry zero. Settled marks a write outcome: every
// mutation up to Seq reached the server (Err nil) or failed (Err set).
type Event struct {
	Snapshot *program.Snapshot
	Err      error
	Seq      uint64
	Settled  bool
}

// Persister is the durable half of the snapshot cache. Implemented by the
// SQLite KV store; nil disables persistence.
type Persister interface {
	Get(ctx context.Context, key string) (program.Snapshot, error)
	Set(ctx context.Context, key string, value program.Snapshot) error
	Delete(ctx context.Context, key string) error
}

// Store owns the canonical in-memory snapshot of the active program.
//
// All mutation goes through its operations, and the snapshot cell is always
// replaced wholesale, so readers never observe a half-updated value. The
// guiding policy is preserve-on-uncertainty: a known-good snapshot is never
// overwritten with "none" because of a transient failure or an ambiguous
// absence.
type Store struct {
	mu         sync.Mutex
	phase      Phase
	snapshot   *program.Snapshot
	lastErr    error
	writeErr   error
	generation uint64
	mutSeq     uint64
	subs       []chan Event

	svc       remote.Service
	cache     *cache.Cache
	persister Persister
	coalescer *Coalescer
	log       zerolog.Logger
	now       func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock replaces the time source, for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithPersister attaches a durable snapshot store used for cold-start
// fallback. Persistence failures are logged, never surfaced.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// WithCoalescerDelay overrides the checklist write debounce window.
func WithCoalescerDelay(d time.Duration) StoreOption {
	return func(s *Store) { s.coalescer.delay = d }
}

// NewStore creates a store bound to the given remote service and cache.
func NewStore(svc remote.Service, snapCache *cache.Cache, opts ...StoreOption) *Store {
	s := &Store{
		phase: PhaseIdle,
		svc:   svc,
		cache: snapCache,
		log:   logging.Component("progress"),
		now:   time.Now,
	}
	s.coalescer = NewCoalescer(s.sendChecklist, s.onWriteDone)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns a channel receiving state-change events. Slow consumers
// miss intermediate events rather than blocking the store.
func (s *Store) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, 16)
	s.subs = append(s.subs, ch)
	return ch
}

// ActiveProgram returns a copy of the current snapshot, if one is held.
func (s *Store) ActiveProgram() (program.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return program.Snapshot{}, false
	}
	return s.snapshot.Clone(), true
}

// Loading reports whether an initial load is in flight with nothing
// published yet.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseLoading
}

// Err returns the last surfaced fetch error, cleared on the next successful
// publish.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// WarmStart seeds the store from the persisted snapshot, if any, so a cold
// start has a fallback value before the first fetch completes. Best effort.
func (s *Store) WarmStart(ctx context.Context) {
	if s.persister == nil {
		return
	}
	snap, err := s.persister.Get(ctx, CacheKey)
	if err != nil {
		s.log.Debug().Err(err).Msg("no persisted snapshot for warm start")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return
	}
	snap.Normalize(s.today())
	s.cache.Set(CacheKey, snap)
	s.publishLocked(&snap)
	s.log.Info().Str("program_id", snap.ProgramID).Msg("warm start from persisted snapshot")
}

// Load publishes the cached snapshot immediately when fresh and refreshes in
// the background; otherwise it fetches synchronously. A call while another
// load or refresh is in flight is a no-op.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return nil
	}

	if snap, ok := s.cache.Get(CacheKey); ok {
		s.publishLocked(&snap)
		s.phase = PhaseRefreshing
		gen := s.generation
		s.mu.Unlock()

		go func() {
			bg := logging.WithTrigger(context.WithoutCancel(ctx), "background")
			s.fetch(bg, gen, false)
		}()
		return nil
	}

	s.phase = PhaseLoading
	gen := s.generation
	s.mu.Unlock()

	return s.fetch(ctx, gen, true)
}

// Refresh always hits the remote service, still obeying the
// preserve-on-uncertainty rule. No-op while another fetch is in flight.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseRefreshing
	gen := s.generation
	s.mu.Unlock()

	return s.fetch(ctx, gen, true)
}

// Invalidate clears the cache and the published state. Only called when the
// caller is certain the program truly ended, e.g. after a stop.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Delete(CacheKey)
	s.snapshot = nil
	s.lastErr = nil
	s.notifyLocked(Event{})
	s.deletePersisted()
}

// DropCache discards the cache entry without touching the published state.
// Used by the retry controller to make a subsequent absence authoritative.
func (s *Store) DropCache() {
	s.cache.Delete(CacheKey)
}

// fetch performs one remote read and reconciles the outcome. surface
// controls whether errors are recorded for consumers or only logged.
func (s *Store) fetch(ctx context.Context, gen uint64, surface bool) error {
	snap, err := s.svc.GetActiveProgram(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle

	if s.generation != gen {
		// Context changed while the request was in flight (invalidate or
		// stop); the response no longer corresponds to the expected program.
		s.log.Debug().Msg("discarding stale fetch result")
		return nil
	}

	if err == nil {
		snap.Normalize(s.today())
	}
	return s.reconcileLocked(reconcileInput{snapshot: &snap, err: err}, surface)
}

// reconcileInput is one fetch outcome fed into the reconcile policy.
type reconcileInput struct {
	snapshot *program.Snapshot
	err      error
}

// reconcileLocked is the single decision point for what to publish after a
// fetch. The rule: never regress a populated state to empty on uncertainty.
// Absence is trusted only when the remote explicitly reports no program and
// no cached value, fresh or stale, exists to fall back to.
func (s *Store) reconcileLocked(in reconcileInput, surface bool) error {
	switch {
	case in.err == nil:
		s.publishLocked(in.snapshot)
		s.cache.Set(CacheKey, *in.snapshot)
		s.persist(*in.snapshot)
		return nil

	case errors.Is(in.err, remote.ErrNotFound):
		if _, ok := s.cache.GetStale(CacheKey); ok || s.snapshot != nil {
			s.log.Debug().Msg("remote reports no program; keeping cached snapshot")
			return nil
		}
		s.snapshot = nil
		s.notifyLocked(Event{})
		s.deletePersisted()
		return nil

	default:
		// Transient, including auth expiry: keep whatever we have.
		if remote.IsAuthExpired(in.err) {
			s.log.Warn().Err(in.err).Msg("auth expired; keeping snapshot until token refresh")
		} else {
			s.log.Warn().Err(in.err).Msg("fetch failed; keeping snapshot")
		}
		if surface {
			s.lastErr = in.err
			s.notifyLocked(Event{Snapshot: s.snapshot, Err: in.err})
			return in.err
		}
		return nil
	}
}

// UpdateChecklist applies the supplied checklist to today's log
// optimistically and schedules a coalesced write. No-op without an active
// snapshot, reporting sequence zero.
//
// The returned sequence number identifies the mutation in subscriber
// events: the optimistic publish carries it, and so does the settle event
// reporting the fate of the coalesced write covering it. On write failure
// the store does not revert; the caller holds the pre-mutation checklist
// and is responsible for rollback. Reverting here would cause visible
// flicker for every transient write failure.
func (s *Store) UpdateChecklist(ctx context.Context, checklist map[string]bool, symptoms map[string]int) (uint64, error) {
	s.mu.Lock()
	if s.snapshot == nil || s.snapshot.Status != program.StatusActive {
		s.mu.Unlock()
		s.log.Debug().Msg("checklist update ignored: no active snapshot")
		return 0, nil
	}

	next := s.snapshot.Clone()
	completed, total, rate := program.ChecklistStats(checklist)

	today := next.TodayLog
	today.Checklist = cloneChecklist(checklist)
	if symptoms != nil {
		today.Symptoms = cloneSymptoms(symptoms)
	}
	today.CompletedCount = completed
	today.TotalCount = total
	today.CompletionRate = rate
	next.TodayLog = today
	next.Logs[today.Date] = today

	programType := next.Type
	s.mutSeq++
	seq := s.mutSeq
	s.snapshot = &next
	s.lastErr = nil
	s.notifyLocked(Event{Snapshot: &next, Seq: seq})
	s.cache.Set(CacheKey, next)
	s.mu.Unlock()

	s.coalescer.Post(checklistWrite{
		seq:         seq,
		programType: programType,
		update: remote.ChecklistUpdate{
			Checklist: cloneChecklist(checklist),
			Symptoms:  cloneSymptoms(symptoms),
		},
	})
	return seq, nil
}

// CompleteDay runs the day-completion transition through its dedicated
// endpoint. Completion mutates server-derived fields (streak, day index), so
// a failure triggers a full refresh instead of local rollback guesswork.
//
// The returned result reports AlreadyCompleted when the server saw the day
// as done, so callers can suppress a duplicate celebration.
func (s *Store) CompleteDay(ctx context.Context) (remote.DayResult, error) {
	s.mu.Lock()
	if s.snapshot == nil {
		s.mu.Unlock()
		return remote.DayResult{}, ErrNoActiveProgram
	}
	if s.snapshot.Type != program.TypeDiet {
		s.mu.Unlock()
		return remote.DayResult{}, ErrNotDietProgram
	}
	programType := s.snapshot.Type
	s.mu.Unlock()

	result, err := s.svc.CompleteDay(ctx, programType)
	if err != nil {
		s.log.Warn().Err(err).Msg("day completion failed; reconciling via refresh")
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			s.log.Warn().Err(refreshErr).Msg("post-failure refresh failed")
		}
		return remote.DayResult{}, fmt.Errorf("complete day: %w", err)
	}

	if result.AlreadyCompleted {
		return result, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return result, nil
	}

	next := s.snapshot.Clone()
	next.CurrentDayIndex = result.CurrentDay
	next.Streak.Current = result.Streak
	if result.Streak > next.Streak.Longest {
		next.Streak.Longest = result.Streak
	}
	next.TodayLog.Completed = true
	next.TodayLog.CompletionRate = result.CompletionRate
	next.Logs[next.TodayLog.Date] = next.TodayLog
	if result.IsComplete {
		next.Status = program.StatusCompleted
	}

	s.publishLocked(&next)
	s.cache.Set(CacheKey, next)
	s.persist(next)
	return result, nil
}

// MarkCelebrationShown sets the celebration flag optimistically and persists
// it fire-and-forget. A cosmetic flag is never worth surfacing an error for.
func (s *Store) MarkCelebrationShown(ctx context.Context) {
	s.mu.Lock()
	if s.snapshot == nil {
		s.mu.Unlock()
		return
	}
	next := s.snapshot.Clone()
	next.TodayLog.CelebrationShown = true
	next.Logs[next.TodayLog.Date] = next.TodayLog
	programType := next.Type
	s.publishLocked(&next)
	s.cache.Set(CacheKey, next)
	s.mu.Unlock()

	go func() {
		bg := context.WithoutCancel(ctx)
		if err := s.svc.MarkCelebrationShown(bg, programType); err != nil {
			s.log.Warn().Err(err).Msg("celebration flag write failed")
		}
	}()
}

// Pause suspends the active program. Never optimistic: the server owns the
// status transition, so the local state is reconciled via refresh.
func (s *Store) Pause(ctx context.Context) error {
	if err := s.svc.PauseProgram(ctx); err != nil {
		return fmt.Errorf("pause program: %w", err)
	}
	return s.Refresh(ctx)
}

// Resume reactivates a paused program, reconciling via refresh.
func (s *Store) Resume(ctx context.Context) error {
	if err := s.svc.ResumeProgram(ctx); err != nil {
		return fmt.Errorf("resume program: %w", err)
	}
	return s.Refresh(ctx)
}

// Stop ends the program and clears all local state. The only path that
// intentionally publishes "none".
func (s *Store) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.snapshot == nil {
		s.mu.Unlock()
		return ErrNoActiveProgram
	}
	programID := s.snapshot.ProgramID
	s.mu.Unlock()

	if err := s.svc.StopProgram(ctx, programID); err != nil {
		return fmt.Errorf("stop program: %w", err)
	}
	s.coalescer.Flush()
	s.Invalidate()
	return nil
}

// TodayTracker fetches the checklist/symptom definitions for the active
// program so consumers can render item labels.
func (s *Store) TodayTracker(ctx context.Context) (remote.TrackerView, error) {
	s.mu.Lock()
	if s.snapshot == nil {
		s.mu.Unlock()
		return remote.TrackerView{}, ErrNoActiveProgram
	}
	programType := s.snapshot.Type
	s.mu.Unlock()

	return s.svc.GetTodayTracker(ctx, programType)
}

// Flush forces any pending coalesced write out immediately and reports the
// outcome of the most recent write. Called on shutdown so a final toggle is
// not lost to the debounce window, and by one-shot callers that must not
// report success for a change the server rejected.
func (s *Store) Flush() error {
	s.coalescer.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr
}

func (s *Store) sendChecklist(ctx context.Context, w checklistWrite) error {
	return s.svc.UpdateChecklist(ctx, w.programType, w.update)
}

func (s *Store) onWriteDone(w checklistWrite, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
	if err != nil {
		// The optimistic snapshot stays as-is; the UI layer holds the
		// pre-mutation checklist and performs its own rollback.
		s.log.Warn().Err(err).Msg("checklist write failed")
		s.notifyLocked(Event{Snapshot: s.snapshot, Err: err, Seq: w.seq, Settled: true})
		return
	}
	s.notifyLocked(Event{Snapshot: s.snapshot, Seq: w.seq, Settled: true})
}

// publishLocked replaces the snapshot cell wholesale and notifies
// subscribers. Callers hold s.mu.
func (s *Store) publishLocked(snap *program.Snapshot) {
	s.snapshot = snap
	s.lastErr = nil
	s.notifyLocked(Event{Snapshot: snap})
}

func (s *Store) notifyLocked(ev Event) {
	if ev.Snapshot != nil {
		clone := ev.Snapshot.Clone()
		ev.Snapshot = &clone
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Store) persist(snap program.Snapshot) {
	if s.persister == nil {
		return
	}
	go func() {
		if err := s.persister.Set(context.Background(), CacheKey, snap); err != nil {
			s.log.Debug().Err(err).Msg("snapshot persist failed")
		}
	}()
}

func (s *Store) deletePersisted() {
	if s.persister == nil {
		return
	}
	go func() {
		if err := s.persister.Delete(context.Background(), CacheKey); err != nil {
			s.log.Debug().Err(err).Msg("persisted snapshot delete failed")
		}
	}()
}

func (s *Store) today() string {
	return s.now().Format(program.DateFormat)
}

func cloneChecklist(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSymptoms(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
