package progress

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/strideapp/stride/internal/core/logging"
)

// DefaultFocusSettle is the delay between a view regaining focus and the
// refresh it triggers, long enough to ride out a navigation transition.
const DefaultFocusSettle = 300 * time.Millisecond

// FocusRefresher refreshes the store in the background when a consuming
// view becomes visible holding a snapshot it does not expect. Failures on
// this path are logged and swallowed; a background refresh must never
// interrupt the user.
type FocusRefresher struct {
	store  *Store
	settle time.Duration
	timer  func(d time.Duration, f func()) *time.Timer
	log    zerolog.Logger
}

// FocusOption configures a FocusRefresher.
type FocusOption func(*FocusRefresher)

// WithFocusSettle overrides the settle delay.
func WithFocusSettle(d time.Duration) FocusOption {
	return func(f *FocusRefresher) { f.settle = d }
}

// NewFocusRefresher creates a focus trigger over the given store.
func NewFocusRefresher(store *Store, opts ...FocusOption) *FocusRefresher {
	f := &FocusRefresher{
		store:  store,
		settle: DefaultFocusSettle,
		timer:  time.AfterFunc,
		log:    logging.Component("focus"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnFocus schedules a background refresh when the held snapshot does not
// match the program the view expects. A matching snapshot is a no-op.
func (f *FocusRefresher) OnFocus(expectedProgramID string) {
	if snap, ok := f.store.ActiveProgram(); ok {
		if expectedProgramID == "" || snap.ProgramID == expectedProgramID {
			return
		}
	}

	f.timer(f.settle, func() {
		ctx := logging.WithTrigger(context.Background(), "focus")
		if err := f.store.Refresh(ctx); err != nil {
			f.log.Warn().Err(err).Msg("focus refresh failed")
		}
	})
}
