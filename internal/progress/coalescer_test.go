package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/remote"
)

// recordingSink captures sends and can block them to simulate slow writes.
type recordingSink struct {
	mu    sync.Mutex
	sent  []checklistWrite
	errs  []checklistWrite
	gate  chan struct{}
	fail  error
	calls int
}

func (r *recordingSink) send(ctx context.Context, w checklistWrite) error {
	r.mu.Lock()
	r.calls++
	gate := r.gate
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, w)
	return nil
}

func (r *recordingSink) onDone(w checklistWrite, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, w)
}

func (r *recordingSink) sentWrites() []checklistWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]checklistWrite, len(r.sent))
	copy(out, r.sent)
	return out
}

func write(checklist map[string]bool) checklistWrite {
	return checklistWrite{
		programType: program.TypeDiet,
		update:      remote.ChecklistUpdate{Checklist: checklist},
	}
}

func newTestCoalescer(t *testing.T, sink *recordingSink) *Coalescer {
	t.Helper()
	c := NewCoalescer(sink.send, sink.onDone)
	c.delay = 10 * time.Millisecond
	return c
}

func TestCoalescer_BurstProducesSingleWriteWithLatestState(t *testing.T) {
	sink := &recordingSink{}
	c := newTestCoalescer(t, sink)

	// Three toggles inside one idle window.
	c.Post(write(map[string]bool{"a": true, "b": false}))
	c.Post(write(map[string]bool{"a": true, "b": true}))
	c.Post(write(map[string]bool{"a": false, "b": true}))

	require.Eventually(t, func() bool { return len(sink.sentWrites()) == 1 },
		time.Second, time.Millisecond)

	// Settle to prove no further writes follow.
	time.Sleep(50 * time.Millisecond)
	sent := sink.sentWrites()
	require.Len(t, sent, 1)
	assert.Equal(t, map[string]bool{"a": false, "b": true}, sent[0].update.Checklist)
}

func TestCoalescer_MutationDuringInFlightWrite(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	c := newTestCoalescer(t, sink)

	c.Post(write(map[string]bool{"a": true}))

	// Wait for the first write to start, then mutate while it is in flight.
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.calls == 1
	}, time.Second, time.Millisecond)

	c.Post(write(map[string]bool{"a": false}))
	c.Post(write(map[string]bool{"a": false, "b": true}))

	// Let the in-flight write complete; the completion handler must send
	// exactly one more write carrying the latest pending state.
	close(sink.gate)
	sink.mu.Lock()
	sink.gate = nil
	sink.mu.Unlock()

	require.Eventually(t, func() bool { return len(sink.sentWrites()) == 2 },
		time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	sent := sink.sentWrites()
	require.Len(t, sent, 2, "no dropped updates, no duplicates")
	assert.Equal(t, map[string]bool{"a": true}, sent[0].update.Checklist)
	assert.Equal(t, map[string]bool{"a": false, "b": true}, sent[1].update.Checklist)
}

func TestCoalescer_FailurePropagatesPayloadToCaller(t *testing.T) {
	sink := &recordingSink{fail: errors.New("write failed")}
	c := newTestCoalescer(t, sink)

	c.Post(write(map[string]bool{"a": true}))

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.errs) == 1
	}, time.Second, time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, map[string]bool{"a": true}, sink.errs[0].update.Checklist,
		"caller needs the failed payload to drive rollback")
}

func TestCoalescer_FlushSendsPendingImmediately(t *testing.T) {
	sink := &recordingSink{}
	c := NewCoalescer(sink.send, sink.onDone)
	c.delay = time.Hour // never fires on its own

	c.Post(write(map[string]bool{"a": true}))
	c.Flush()

	sent := sink.sentWrites()
	require.Len(t, sent, 1)
	assert.Equal(t, map[string]bool{"a": true}, sent[0].update.Checklist)
}

func TestCoalescer_FlushWithNothingPending(t *testing.T) {
	sink := &recordingSink{}
	c := newTestCoalescer(t, sink)

	c.Flush()

	assert.Empty(t, sink.sentWrites())
}
