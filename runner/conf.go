package runner

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/apptask/metrics"
)

// Option is a functional option for configuring a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	logger      *slog.Logger
	clock       clockwork.Clock
	rateLimiter *rate.Limiter
	metrics     *metrics.Collector

	beforeAttempt func(label string, attempt int)
	onRetry       func(label string, attempt int, err error, delay time.Duration)
	onTaskEnd     func(label string, err error)
}

func newConfig(opts ...Option) *runnerConfig {
	cfg := &runnerConfig{
		logger: slog.Default(),
		clock:  clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithLogger sets the logger used for attempt, success, failure and panic records.
// If not specified, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *runnerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithClock sets the clock used to wait out backoff delays.
// Tests pass a clockwork.FakeClock to control time.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *runnerConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithRateLimit caps how fast attempts start across all tasks of the runner.
// attemptsPerSecond specifies the sustained rate, burst the number of attempts
// that may start at once. Waiting for the limiter is a cancellation point.
// If not specified, attempts are not rate limited.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 attempts/sec with burst of 5
func WithRateLimit(attemptsPerSecond float64, burst int) Option {
	return func(cfg *runnerConfig) {
		if attemptsPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(attemptsPerSecond), burst)
		}
	}
}

// WithMetrics records attempts, failures, panics and backoff delays on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(cfg *runnerConfig) {
		cfg.metrics = c
	}
}

// WithBeforeAttempt sets a hook called before every attempt.
// attempt is 1-indexed.
func WithBeforeAttempt(fn func(label string, attempt int)) Option {
	return func(cfg *runnerConfig) {
		cfg.beforeAttempt = fn
	}
}

// WithOnRetry sets a hook called after a failed attempt, once the backoff
// delay is known and before the runner waits for it.
func WithOnRetry(fn func(label string, attempt int, err error, delay time.Duration)) Option {
	return func(cfg *runnerConfig) {
		cfg.onRetry = fn
	}
}

// WithOnTaskEnd sets a hook called once when a supervised task stops, with
// the value its Handle resolves to.
func WithOnTaskEnd(fn func(label string, err error)) Option {
	return func(cfg *runnerConfig) {
		cfg.onTaskEnd = fn
	}
}
