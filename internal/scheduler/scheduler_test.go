package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls atomic.Int64
	err   error
}

func (r *countingRunner) RetryPendingTransactions(context.Context) (int, error) {
	r.calls.Add(1)
	return 1, r.err
}

func waitForCalls(t *testing.T, runner *countingRunner, want int64) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for runner.calls.Load() < want {
		select {
		case <-deadline:
			t.Fatalf("runner reached %d calls, want at least %d", runner.calls.Load(), want)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSchedulerRunsSweeps(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 5*time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	waitForCalls(t, runner, 3)
}

func TestSchedulerKeepsRunningAfterErrors(t *testing.T) {
	runner := &countingRunner{err: errors.New("provider down")}
	s := New(runner, 5*time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	waitForCalls(t, runner, 3)
}

func TestSchedulerStopJoins(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 5*time.Millisecond)

	s.Start(context.Background())
	waitForCalls(t, runner, 1)
	s.Stop()

	// No sweeps start after Stop returns.
	settled := runner.calls.Load()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, settled, runner.calls.Load())
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := New(&countingRunner{}, time.Minute)
	s.Stop()
}

func TestSchedulerHonorsParentContext(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitForCalls(t, runner, 1)

	cancel()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after parent context cancellation")
	}
}
