package runner

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// repanic carries a panic value out of a WaitAll goroutine so that it can be
// raised in the caller's goroutine instead.
type repanic struct {
	value any
}

func (r *repanic) Error() string {
	return "task panicked: " + PanicReason(r.value)
}

// WaitAll waits for every handle and returns the first non-nil result, such
// as a *PanicError. It returns as soon as one handle fails or ctx is done;
// the remaining tasks keep running.
//
// A panic from a task spawned with SpawnTaskNoRecover is raised again from
// WaitAll with the original value.
func WaitAll(ctx context.Context, handles ...*Handle) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, h := range handles {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &repanic{value: r}
				}
			}()
			return h.WaitContext(gctx)
		})
	}

	err := g.Wait()

	var rp *repanic
	if errors.As(err, &rp) {
		panic(rp.value)
	}

	return err
}
