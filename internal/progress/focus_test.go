package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride/internal/remote"
)

func TestFocusRefresher_MatchingProgramIsNoop(t *testing.T) {
	svc := &fakeService{}
	svc.setSnapshot(testSnapshot())
	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background()))
	before := svc.calls()

	f := NewFocusRefresher(store, WithFocusSettle(time.Millisecond))
	f.OnFocus("prog-1")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, svc.calls(), "matching snapshot must not trigger a refresh")
}

func TestFocusRefresher_MismatchSchedulesRefresh(t *testing.T) {
	svc := &fakeService{}
	svc.setSnapshot(testSnapshot())
	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background()))
	before := svc.calls()

	f := NewFocusRefresher(store, WithFocusSettle(time.Millisecond))
	f.OnFocus("prog-2")

	require.Eventually(t, func() bool { return svc.calls() > before },
		time.Second, time.Millisecond)
}

func TestFocusRefresher_AbsentSnapshotTriggersRefresh(t *testing.T) {
	svc := &fakeService{}
	store, _ := newTestStore(t, svc)

	f := NewFocusRefresher(store, WithFocusSettle(time.Millisecond))
	f.OnFocus("prog-1")

	require.Eventually(t, func() bool { return svc.calls() == 1 },
		time.Second, time.Millisecond)
}

func TestFocusRefresher_SwallowsRefreshErrors(t *testing.T) {
	svc := &fakeService{}
	svc.setSnapshot(testSnapshot())
	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background()))

	svc.setGetErr(&remote.APIError{StatusCode: 503})

	f := NewFocusRefresher(store, WithFocusSettle(time.Millisecond))
	// Must not panic or surface anything; the failure is logged only.
	f.OnFocus("prog-2")

	require.Eventually(t, func() bool { return svc.calls() == 2 },
		time.Second, time.Millisecond)

	snap, ok := store.ActiveProgram()
	require.True(t, ok, "failed focus refresh keeps the snapshot")
	assert.Equal(t, "prog-1", snap.ProgramID)
}

func TestFocusRefresher_SettleDelayIsHonored(t *testing.T) {
	svc := &fakeService{}
	svc.setSnapshot(testSnapshot())
	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background()))
	before := svc.calls()

	f := NewFocusRefresher(store, WithFocusSettle(100*time.Millisecond))
	f.OnFocus("prog-2")

	// Still inside the settle window: nothing sent yet.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, svc.calls())

	require.Eventually(t, func() bool { return svc.calls() > before },
		time.Second, time.Millisecond)
}
