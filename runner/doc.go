// Package runner supervises long-running tasks: each task is retried until it
// succeeds, with a pluggable backoff delay between failed attempts, while
// panics inside the task are kept from taking down the process.
//
// The primary type is Runner[T], which owns a shared application value of
// type T and a backoff.Factory. Every spawned task receives its own
// backoff.Strategy, so failure history never leaks between tasks.
//
// # Basic Usage
//
//	type App struct {
//	    counter atomic.Int64
//	}
//
//	r := runner.New(&App{})
//	h := r.SpawnTask(ctx, "count", func(ctx context.Context, app *App) error {
//	    app.counter.Add(1)
//	    return nil
//	})
//	if err := h.Wait(); err != nil {
//	    // err is a *runner.PanicError: the task crashed
//	}
//
// # Backoff Strategies
//
// The default policy waits a constant five seconds after every failure.
// Reconfiguring returns a new Runner; tasks already spawned keep their strategy:
//
//	r = r.WithStrategy(backoff.DefaultThresholdBucketsFactory())
//
// # Crash Isolation
//
// SpawnTask recovers panics in the task function. The panic is logged and the
// Handle resolves to a *PanicError; the task is not retried.
//
// SpawnTaskNoRecover leaves panics alone: the task's goroutine stops and the
// original panic value is raised again from Handle.Wait, in the goroutine
// that inspects the handle.
//
// # Logging
//
// Every attempt start, success, failure and panic emits one slog record with
// the task_label and task_id attributes; failures and panics carry the error
// text under "error".
//
// # Configuration Options
//
//   - WithLogger(logger): Set the slog logger (default: slog.Default())
//   - WithClock(clock): Set the clock used for backoff delays
//   - WithRateLimit(attemptsPerSecond, burst): Limit attempt starts across tasks
//   - WithMetrics(collector): Record Prometheus metrics
//   - WithBeforeAttempt, WithOnRetry, WithOnTaskEnd: Lifecycle hooks
package runner
