package progress

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/strideapp/stride/internal/core/logging"
	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/remote"
)

// DefaultCoalesceDelay is the idle window after the last mutation before a
// write is sent.
const DefaultCoalesceDelay = 300 * time.Millisecond

// checklistWrite is one outbound daily-log mutation. seq is the sequence of
// the latest store mutation the payload covers.
type checklistWrite struct {
	seq         uint64
	programType program.Type
	update      remote.ChecklistUpdate
}

// Coalescer batches bursts of checklist mutations into a single write per
// idle window and sequences writes so at most one is in flight.
//
// Each Post overwrites the single pending slot and restarts the idle timer.
// When the timer fires with no write in flight, the pending mutation is
// sent. If a write is in flight, the slot stays populated and the in-flight
// write's completion sends it immediately, so the latest state always
// reaches the server and intermediate states are dropped.
type Coalescer struct {
	mu       sync.Mutex
	pending  *checklistWrite
	inFlight bool
	timer    *time.Timer
	wg       sync.WaitGroup

	delay  time.Duration
	send   func(ctx context.Context, w checklistWrite) error
	onDone func(w checklistWrite, err error)
	log    zerolog.Logger
}

// NewCoalescer creates a coalescer that delivers writes through send.
// onDone receives every completed write with its payload and outcome, so
// the caller can report settles and drive rollback on failure; the
// coalescer itself keeps no rollback state.
func NewCoalescer(send func(ctx context.Context, w checklistWrite) error, onDone func(w checklistWrite, err error)) *Coalescer {
	return &Coalescer{
		delay:  DefaultCoalesceDelay,
		send:   send,
		onDone: onDone,
		log:    logging.Component("coalescer"),
	}
}

// Post records a mutation and (re)starts the idle timer.
func (c *Coalescer) Post(w checklistWrite) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = &w
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Flush sends any pending mutation immediately and waits for in-flight
// writes to finish.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	start := c.pending != nil && !c.inFlight
	if start {
		c.inFlight = true
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if start {
		go c.drain()
	}
	c.wg.Wait()
}

// fire runs on timer expiry. A populated slot during an in-flight write is
// left alone; the drain loop picks it up on completion.
func (c *Coalescer) fire() {
	c.mu.Lock()
	if c.inFlight || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.drain()
}

// drain sends the pending mutation, then immediately sends any mutation
// posted while that write was in flight, until the slot is empty.
func (c *Coalescer) drain() {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		w := c.pending
		c.pending = nil
		if w == nil {
			c.inFlight = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		err := c.send(context.Background(), *w)
		if err != nil {
			c.log.Warn().Err(err).Msg("coalesced write failed")
		}
		if c.onDone != nil {
			c.onDone(*w, err)
		}
	}
}
