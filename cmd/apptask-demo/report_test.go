package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/utkarsh5026/apptask/backoff"
	"github.com/utkarsh5026/apptask/runner"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", err: nil, want: "finished"},
		{name: "panic", err: fmt.Errorf("wrapped: %w", &runner.PanicError{Label: "x", Value: "boom"}), want: "panicked: boom"},
		{name: "cancelled", err: context.Canceled, want: "cancelled"},
		{name: "other", err: errors.New("odd"), want: "odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := outcome(tt.err)
			if got != tt.want {
				t.Errorf("outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTracker_Attempts(t *testing.T) {
	tr := newTracker(true, io.Discard)
	tr.start(2)

	tr.attemptStarted("a", 1)
	tr.attemptStarted("a", 2)
	tr.attemptStarted("b", 1)
	tr.taskEnded("a", nil)
	tr.finish()

	if got := tr.attempts("a"); got != 2 {
		t.Errorf("attempts(a) = %d, want 2", got)
	}
	if got := tr.attempts("b"); got != 1 {
		t.Errorf("attempts(b) = %d, want 1", got)
	}
}

func TestDemoTasks(t *testing.T) {
	state := &State{}

	if err := failsOnce(context.Background(), state); err == nil || !strings.Contains(err.Error(), "Task failed") {
		t.Fatalf("first call = %v, want failure", err)
	}
	if err := failsOnce(context.Background(), state); err != nil {
		t.Fatalf("second call = %v, want success", err)
	}
	if err := basicTask(context.Background(), state); err != nil {
		t.Fatalf("basicTask() = %v", err)
	}

	var panicked atomic.Bool
	func() {
		defer func() { panicked.Store(recover() == "Task panicked") }()
		_ = panics(time.Millisecond)(context.Background(), state)
	}()
	if !panicked.Load() {
		t.Error("panics task did not panic with the expected value")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := panics(time.Hour)(ctx, state); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled panics task = %v, want context.Canceled", err)
	}
}

func TestSpawnDemoTasks_ProgressCountsEveryTask(t *testing.T) {
	tr := newTracker(false, io.Discard)

	r := runner.New(&State{},
		runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		runner.WithBeforeAttempt(tr.attemptStarted),
		runner.WithOnTaskEnd(tr.taskEnded),
	).WithStrategy(&backoff.ConstantTimeFactory{})

	handles := spawnDemoTasks(context.Background(), r, tr, time.Millisecond)
	if len(handles) != 3 {
		t.Fatalf("expected 3 handles, got %d", len(handles))
	}

	for _, h := range handles {
		_ = h.WaitWithTimeout(5 * time.Second)
	}

	if got := tr.bar.State().CurrentNum; got != 3 {
		t.Errorf("progress = %d, want 3", got)
	}
	if got := tr.attempts("Fails once task"); got != 2 {
		t.Errorf("attempts(Fails once task) = %d, want 2", got)
	}
	tr.finish()
}
