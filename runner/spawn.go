package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utkarsh5026/apptask/backoff"
)

// SpawnTask starts supervising fn on a new goroutine and returns immediately.
//
// fn is called until it returns nil. Every error is logged, recorded in a
// strategy created for this task alone, and followed by the strategy's
// backoff delay before the next call. A panic inside fn is recovered, logged
// and ends supervision: the Handle resolves to a *PanicError and fn is not
// called again.
//
// Parameters:
//   - ctx: Parent context; cancelling it stops supervision at the next suspension point
//   - label: Display name used in logs and metrics (not required to be unique)
//   - fn: The task, safe to call repeatedly
//
// Example:
//
//	h := r.SpawnTask(ctx, "refresh cache", func(ctx context.Context, app *App) error {
//	    return app.cache.Refresh(ctx)
//	})
//	var pe *runner.PanicError
//	if err := h.Wait(); errors.As(err, &pe) {
//	    log.Printf("cache refresher crashed: %s", pe.Reason())
//	}
func (r *Runner[T]) SpawnTask(ctx context.Context, label string, fn TaskFunc[T]) *Handle {
	return r.spawn(ctx, label, fn, true)
}

// SpawnTaskNoRecover is like SpawnTask but does not recover panics inside fn.
// A panic stops the task's goroutine and is raised again, with the original
// value, from the Handle's Wait methods. The crash is still logged, counted
// and passed to the OnTaskEnd hook as a *PanicError when it happens.
func (r *Runner[T]) SpawnTaskNoRecover(ctx context.Context, label string, fn TaskFunc[T]) *Handle {
	return r.spawn(ctx, label, fn, false)
}

func (r *Runner[T]) spawn(ctx context.Context, label string, fn TaskFunc[T], isolate bool) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := newHandle(label, cancel)

	s := &supervisor[T]{
		label:    label,
		id:       h.id,
		app:      r.app,
		fn:       fn,
		strategy: r.factory.CreateStrategy(),
		conf:     r.conf,
		isolate:  isolate,
		log: r.conf.logger.With(
			slog.String("task_label", label),
			slog.String("task_id", h.id.String()),
		),
	}

	go h.run(func() error {
		return s.run(ctx)
	})

	return h
}

// supervisor owns the retry loop of one spawned task.
type supervisor[T any] struct {
	label    string
	id       uuid.UUID
	app      *T
	fn       TaskFunc[T]
	strategy backoff.Strategy
	conf     *runnerConfig
	isolate  bool
	log      *slog.Logger
}

func (s *supervisor[T]) run(ctx context.Context) error {
	if m := s.conf.metrics; m != nil {
		m.TaskStarted(s.label)
		defer m.TaskStopped(s.label)
	}

	returned := false
	defer func() {
		if returned {
			return
		}

		// The loop did not return: the task panicked without isolation or
		// stopped its goroutine with runtime.Goexit.
		r := recover()
		if r == nil {
			s.crashed(newPanicError(s.label, s.id, ErrTaskExited))
			return
		}
		s.crashed(newPanicError(s.label, s.id, r))
		panic(r)
	}()

	err := s.loop(ctx)
	returned = true

	if s.conf.onTaskEnd != nil {
		s.conf.onTaskEnd(s.label, err)
	}

	return err
}

// crashed reports a task whose goroutine is unwinding without the loop
// returning.
func (s *supervisor[T]) crashed(pe *PanicError) {
	s.log.Error("task panicked", slog.String("error", pe.Reason()))
	if m := s.conf.metrics; m != nil {
		m.AttemptPanicked(s.label)
	}
	if s.conf.onTaskEnd != nil {
		s.conf.onTaskEnd(s.label, pe)
	}
}

// loop calls the task until it succeeds, panics or supervision is cancelled.
// Attempts are strictly sequential: the next one starts only after the
// previous failure was recorded and its backoff delay has elapsed.
func (s *supervisor[T]) loop(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		if err := s.waitTurn(ctx); err != nil {
			s.log.Info("task cancelled", slog.String("error", err.Error()))
			return err
		}

		s.log.Info("running task", slog.Int("attempt", attempt))
		if s.conf.beforeAttempt != nil {
			s.conf.beforeAttempt(s.label, attempt)
		}
		if m := s.conf.metrics; m != nil {
			m.AttemptStarted(s.label)
		}

		panicErr, taskErr := s.attempt(ctx)

		if panicErr != nil {
			s.log.Error("task panicked",
				slog.Int("attempt", attempt),
				slog.String("error", panicErr.Reason()),
			)
			if m := s.conf.metrics; m != nil {
				m.AttemptPanicked(s.label)
			}
			return panicErr
		}

		if taskErr == nil {
			s.log.Info("task finished", slog.Int("attempt", attempt))
			if m := s.conf.metrics; m != nil {
				m.TaskCompleted(s.label)
			}
			return nil
		}

		s.strategy.AddFailure()
		delay := s.strategy.NextBackoff()

		s.log.Error("task failed",
			slog.Int("attempt", attempt),
			slog.String("error", taskErr.Error()),
			slog.Duration("backoff", delay),
		)
		if m := s.conf.metrics; m != nil {
			m.AttemptFailed(s.label, delay)
		}
		if s.conf.onRetry != nil {
			s.conf.onRetry(s.label, attempt, taskErr, delay)
		}

		if err := s.sleep(ctx, delay); err != nil {
			s.log.Info("task cancelled", slog.String("error", err.Error()))
			return err
		}
	}
}

// waitTurn returns the context error if supervision was cancelled, and
// otherwise waits for the rate limiter, if any.
func (s *supervisor[T]) waitTurn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.conf.rateLimiter == nil {
		return nil
	}

	if err := s.conf.rateLimiter.Wait(ctx); err != nil {
		// Rate limiter's error doesn't wrap context errors, so check context explicitly
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	return nil
}

// attempt calls the task function once. In crash-isolating mode a panic is
// converted into a *PanicError; otherwise it propagates to the goroutine.
func (s *supervisor[T]) attempt(ctx context.Context) (panicErr *PanicError, err error) {
	if s.isolate {
		defer func() {
			if r := recover(); r != nil {
				err = nil
				panicErr = newPanicError(s.label, s.id, r)
			}
		}()
	}

	return nil, s.fn(ctx, s.app)
}

// sleep waits for delay on the configured clock, returning early with the
// context error if supervision is cancelled.
func (s *supervisor[T]) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := s.conf.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
