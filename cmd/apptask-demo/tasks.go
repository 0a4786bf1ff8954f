package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/utkarsh5026/apptask/runner"
)

// State is shared by every demo task.
type State struct {
	counter atomic.Int64
}

func basicTask(ctx context.Context, state *State) error {
	slog.InfoContext(ctx, "Task", slog.Int64("v", state.counter.Load()))
	return nil
}

func failsOnce(ctx context.Context, state *State) error {
	if state.counter.Add(1) == 1 {
		return errors.New("Task failed")
	}

	slog.InfoContext(ctx, "Task succeeded")
	return nil
}

func panics(after time.Duration) runner.TaskFunc[State] {
	return func(ctx context.Context, _ *State) error {
		select {
		case <-time.After(after):
		case <-ctx.Done():
			return ctx.Err()
		}

		panic("Task panicked")
	}
}

// spawnDemoTasks starts the sample tasks. The tracker is sized before the
// first spawn so that no task can end before its progress bar exists.
func spawnDemoTasks(ctx context.Context, r *runner.Runner[State], tr *tracker, panicAfter time.Duration) []*runner.Handle {
	tasks := []struct {
		label string
		fn    runner.TaskFunc[State]
	}{
		{"Basic task", basicTask},
		{"Fails once task", failsOnce},
		{"Panics task", panics(panicAfter)},
	}

	tr.start(len(tasks))

	handles := make([]*runner.Handle, 0, len(tasks))
	for _, task := range tasks {
		handles = append(handles, r.SpawnTask(ctx, task.label, task.fn))
	}
	return handles
}
