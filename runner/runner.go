package runner

import (
	"context"

	"github.com/utkarsh5026/apptask/backoff"
)

// TaskFunc is a supervised task. It may be called any number of times, each
// call receiving the runner's shared application value. Returning nil ends
// supervision; returning an error schedules a retry after a backoff delay.
//
// The app value is shared by every task of the runner; synchronizing any
// mutable state inside it is the caller's responsibility.
type TaskFunc[T any] func(ctx context.Context, app *T) error

// Runner supervises tasks that share one application value.
//
// A Runner is immutable once built: WithStrategy and WithDefaultStrategy
// return a new Runner, so reconfiguring never affects tasks that were
// already spawned.
//
// Type parameters:
//   - T: The shared application value type
type Runner[T any] struct {
	app     *T
	factory backoff.Factory
	conf    *runnerConfig
}

// New creates a Runner around app. The backoff policy defaults to a constant
// five second delay.
//
// Example:
//
//	r := runner.New(&App{}, runner.WithLogger(logger))
//	h := r.SpawnTask(ctx, "sync users", syncUsers)
//	if err := h.Wait(); err != nil {
//	    log.Fatal(err)
//	}
func New[T any](app *T, opts ...Option) *Runner[T] {
	return &Runner[T]{
		app:     app,
		factory: backoff.NewDefaultFactory(),
		conf:    newConfig(opts...),
	}
}

// App returns the shared application value.
func (r *Runner[T]) App() *T {
	return r.app
}

// WithStrategy returns a new Runner that creates task strategies with f.
// The receiver is left unchanged.
func (r *Runner[T]) WithStrategy(f backoff.Factory) *Runner[T] {
	if f == nil {
		f = backoff.NewDefaultFactory()
	}
	return &Runner[T]{
		app:     r.app,
		factory: f,
		conf:    r.conf,
	}
}

// WithDefaultStrategy returns a new Runner using the default constant backoff.
func (r *Runner[T]) WithDefaultStrategy() *Runner[T] {
	return r.WithStrategy(backoff.NewDefaultFactory())
}

// WithDefaultStrategyOf returns a new Runner whose tasks each get a strategy
// of type S initialised with its own defaults.
//
// Example:
//
//	r = runner.WithDefaultStrategyOf[backoff.ThresholdBuckets](r)
func WithDefaultStrategyOf[S any, P backoff.DefaultStrategy[S], T any](r *Runner[T]) *Runner[T] {
	return r.WithStrategy(backoff.DefaultFactory[S, P]{})
}
