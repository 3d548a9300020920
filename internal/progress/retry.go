package progress

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/strideapp/stride/internal/core/logging"
	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/remote"
)

const (
	// DefaultRetryAttempts bounds how many refreshes a missing-but-expected
	// snapshot gets before the absence is trusted.
	DefaultRetryAttempts = 3
	// DefaultRetryDelay is the fixed wait between attempts.
	DefaultRetryDelay = time.Second
)

// Retrier resolves the "snapshot absent but expected" case: a context such
// as a detail view navigated to under the assumption a program exists. It
// refreshes a bounded number of times, dropping the cache before each
// attempt so the final absence is authoritative, then reports not-found.
//
// It only acts when the store is settled: not loading and without a pending
// error. An errored store is a transient failure, not a missing program.
type Retrier struct {
	store    *Store
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      zerolog.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithRetryAttempts overrides the attempt bound.
func WithRetryAttempts(n int) RetrierOption {
	return func(r *Retrier) { r.attempts = n }
}

// WithRetryDelay overrides the fixed inter-attempt delay.
func WithRetryDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) { r.delay = d }
}

// WithRetrySleep replaces the sleep function, for tests.
func WithRetrySleep(sleep func(ctx context.Context, d time.Duration) error) RetrierOption {
	return func(r *Retrier) { r.sleep = sleep }
}

// NewRetrier creates a retry controller over the given store.
func NewRetrier(store *Store, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		store:    store,
		attempts: DefaultRetryAttempts,
		delay:    DefaultRetryDelay,
		sleep:    sleepCtx,
		log:      logging.Component("retrier"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureActive returns the active snapshot, retrying while it is absent.
// After exhausting retries the absence is treated as authoritative and
// remote.ErrNotFound is returned, distinct from a network error.
func (r *Retrier) EnsureActive(ctx context.Context) (program.Snapshot, error) {
	attempt := 0
	for {
		if snap, ok := r.store.ActiveProgram(); ok {
			return snap, nil
		}
		if err := r.store.Err(); err != nil {
			return program.Snapshot{}, err
		}
		if r.store.Loading() {
			// An initial load is already running; give it the delay window
			// instead of racing it with another fetch. Waiting it out does
			// not consume the retry budget.
			if err := r.sleep(ctx, r.delay); err != nil {
				return program.Snapshot{}, err
			}
			continue
		}
		if attempt >= r.attempts {
			r.log.Info().Int("attempts", r.attempts).Msg("snapshot still absent; treating as not found")
			return program.Snapshot{}, remote.ErrNotFound
		}
		attempt++

		r.store.DropCache()
		if err := r.sleep(ctx, r.delay); err != nil {
			return program.Snapshot{}, err
		}
		if err := r.store.Refresh(ctx); err != nil {
			return program.Snapshot{}, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
