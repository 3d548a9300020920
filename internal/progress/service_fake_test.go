package progress

import (
	"context"
	"sync"

	"github.com/strideapp/stride/internal/core/program"
	"github.com/strideapp/stride/internal/remote"
)

// fakeService is an in-memory remote.Service with scriptable failures.
type fakeService struct {
	mu sync.Mutex

	snapshot *program.Snapshot
	getErr   error
	getCalls int
	getGate  chan struct{} // when set, GetActiveProgram blocks until closed

	updates   []remote.ChecklistUpdate
	updateErr error

	dayResult remote.DayResult
	dayErr    error
	dayCalls  int

	celebrations int
	pauseCalls   int
	resumeCalls  int
	stopCalls    int
	stoppedID    string
}

var _ remote.Service = (*fakeService)(nil)

func (f *fakeService) GetActiveProgram(ctx context.Context) (program.Snapshot, error) {
	f.mu.Lock()
	gate := f.getGate
	f.getCalls++
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return program.Snapshot{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return program.Snapshot{}, f.getErr
	}
	if f.snapshot == nil {
		return program.Snapshot{}, remote.ErrNotFound
	}
	return f.snapshot.Clone(), nil
}

func (f *fakeService) GetTodayTracker(ctx context.Context, programType program.Type) (remote.TrackerView, error) {
	return remote.TrackerView{
		Items: []remote.TrackerItem{
			{Key: "water", Label: "Drink water"},
			{Key: "steps", Label: "Walk 10k steps"},
		},
	}, nil
}

func (f *fakeService) UpdateChecklist(ctx context.Context, programType program.Type, update remote.ChecklistUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeService) CompleteDay(ctx context.Context, programType program.Type) (remote.DayResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dayCalls++
	if f.dayErr != nil {
		return remote.DayResult{}, f.dayErr
	}
	result := f.dayResult
	if f.dayCalls > 1 {
		result.AlreadyCompleted = true
	}
	return result, nil
}

func (f *fakeService) MarkCelebrationShown(ctx context.Context, programType program.Type) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.celebrations++
	return nil
}

func (f *fakeService) PauseProgram(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseCalls++
	if f.snapshot != nil {
		f.snapshot.Status = program.StatusPaused
	}
	return nil
}

func (f *fakeService) ResumeProgram(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls++
	if f.snapshot != nil {
		f.snapshot.Status = program.StatusActive
	}
	return nil
}

func (f *fakeService) StopProgram(ctx context.Context, programID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.stoppedID = programID
	f.snapshot = nil
	return nil
}

func (f *fakeService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func (f *fakeService) sentUpdates() []remote.ChecklistUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remote.ChecklistUpdate, len(f.updates))
	copy(out, f.updates)
	return out
}

func (f *fakeService) setSnapshot(snap *program.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snap
}

func (f *fakeService) setGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}
