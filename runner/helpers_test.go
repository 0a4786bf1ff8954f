package runner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/utkarsh5026/apptask/backoff"
)

type testApp struct {
	counter atomic.Int64
}

// countingStrategy records how the supervision loop uses it.
type countingStrategy struct {
	delay    time.Duration
	failures atomic.Int32
	queries  atomic.Int32
}

func (c *countingStrategy) AddFailure() {
	c.failures.Add(1)
}

func (c *countingStrategy) NextBackoff() time.Duration {
	c.queries.Add(1)
	return c.delay
}

// countingFactory hands out countingStrategy instances and keeps them in
// creation order.
type countingFactory struct {
	delay time.Duration

	mu         sync.Mutex
	strategies []*countingStrategy
}

func (f *countingFactory) CreateStrategy() backoff.Strategy {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := &countingStrategy{delay: f.delay}
	f.strategies = append(f.strategies, s)
	return s
}

func (f *countingFactory) created() []*countingStrategy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*countingStrategy(nil), f.strategies...)
}

type logRecord struct {
	level slog.Level
	msg   string
	attrs map[string]string
}

// recordHandler is a slog.Handler keeping every record in memory.
type recordHandler struct {
	mu      *sync.Mutex
	records *[]logRecord
	attrs   []slog.Attr
}

func newRecordHandler() *recordHandler {
	return &recordHandler{mu: &sync.Mutex{}, records: &[]logRecord{}}
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, logRecord{level: r.Level, msg: r.Message, attrs: attrs})
	return nil
}

func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordHandler{
		mu:      h.mu,
		records: h.records,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *recordHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *recordHandler) all() []logRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]logRecord(nil), *h.records...)
}

func (h *recordHandler) messages() []string {
	var msgs []string
	for _, r := range h.all() {
		msgs = append(msgs, r.msg)
	}
	return msgs
}

// advanceWhenBlocked waits until the supervision loop sleeps on the fake
// clock, then moves time forward by d.
func advanceWhenBlocked(t *testing.T, clock *clockwork.FakeClock, d time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("supervision loop never slept: %v", err)
	}
	clock.Advance(d)
}

func waitResult(t *testing.T, h *Handle) error {
	t.Helper()

	err := h.WaitWithTimeout(5 * time.Second)
	if err == ErrWaitTimeout {
		t.Fatal("task did not finish in time")
	}
	return err
}
