package backoff

import (
	"math/rand/v2"
	"time"
)

const (
	maxShift = 63 // Prevent overflow in backoff calculation
)

// ExponentialFactory creates Exponential strategies.
type ExponentialFactory struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// CreateStrategy returns a new Exponential strategy.
func (f *ExponentialFactory) CreateStrategy() Strategy {
	return NewExponential(f.InitialDelay, f.MaxDelay)
}

// Exponential implements simple exponential backoff over consecutive failures.
// Delay formula: initialDelay * 2^(failures-1)
//
// Failure 1: 1x initialDelay
// Failure 2: 2x initialDelay
// Failure 3: 4x initialDelay
// ...until maxDelay is reached
type Exponential struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	failures     int
}

// NewExponential creates a new exponential backoff strategy.
func NewExponential(initialDelay, maxDelay time.Duration) *Exponential {
	return &Exponential{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// AddFailure counts one more consecutive failure.
func (e *Exponential) AddFailure() {
	e.failures++
}

// NextBackoff returns the exponential delay for the failures seen so far.
func (e *Exponential) NextBackoff() time.Duration {
	return calcExponentialDelay(e.failures-1, e.initialDelay, e.maxDelay)
}

// JitteredFactory creates Jittered strategies.
type JitteredFactory struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
}

// CreateStrategy returns a new Jittered strategy.
func (f *JitteredFactory) CreateStrategy() Strategy {
	return NewJittered(f.InitialDelay, f.MaxDelay, f.JitterFactor)
}

// Jittered adds randomization to exponential backoff to prevent thundering herd.
// Delay formula: exponentialDelay * (1 ± jitterFactor)
//
// Example with jitterFactor=0.1:
// Base delay of 1s becomes random value between 900ms and 1100ms
//
// The random multiplier is drawn once per failure, so repeated NextBackoff
// calls between two failures return the same delay.
type Jittered struct {
	initialDelay, maxDelay time.Duration
	jitterFactor           float64 // 0.0 to 1.0 (e.g., 0.1 = ±10% jitter)
	failures               int
	current                time.Duration
}

// NewJittered creates a new jittered backoff strategy.
// jitterFactor is clamped to [0, 1] (typical values: 0.1 to 0.3).
func NewJittered(initialDelay, maxDelay time.Duration, jitterFactor float64) *Jittered {
	return &Jittered{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		jitterFactor: clamp(jitterFactor, 0, 1),
	}
}

// AddFailure counts the failure and draws the next jittered delay.
func (j *Jittered) AddFailure() {
	j.failures++

	baseDelay := calcExponentialDelay(j.failures-1, j.initialDelay, j.maxDelay)
	jitterMultiplier := 1.0 + (rand.Float64()*2-1)*j.jitterFactor //nolint:gosec // jitter does not need crypto rand

	j.current = clamp(time.Duration(float64(baseDelay)*jitterMultiplier), 0, j.maxDelay)
}

// NextBackoff returns the delay drawn by the last AddFailure.
func (j *Jittered) NextBackoff() time.Duration {
	return j.current
}

// DecorrelatedJitterFactory creates DecorrelatedJitter strategies.
type DecorrelatedJitterFactory struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// CreateStrategy returns a new DecorrelatedJitter strategy.
func (f *DecorrelatedJitterFactory) CreateStrategy() Strategy {
	return NewDecorrelatedJitter(f.InitialDelay, f.MaxDelay)
}

// DecorrelatedJitter implements AWS-style decorrelated jitter backoff.
// Algorithm: sleep = min(maxDelay, random(initialDelay, prevSleep * 3))
//
// Each delay depends on the previous delay rather than only on the failure
// count, which spreads concurrent retries of different tasks apart.
//
// Reference: AWS Architecture Blog - "Exponential Backoff And Jitter" (Marc Brooker, 2015)
type DecorrelatedJitter struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	prevDelay    time.Duration
	failures     int
}

// NewDecorrelatedJitter creates a new decorrelated jitter backoff strategy.
func NewDecorrelatedJitter(initialDelay, maxDelay time.Duration) *DecorrelatedJitter {
	return &DecorrelatedJitter{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// AddFailure counts the failure and picks the next decorrelated delay.
// The first failure always maps to initialDelay.
func (d *DecorrelatedJitter) AddFailure() {
	d.failures++

	if d.failures == 1 {
		d.prevDelay = d.initialDelay
		return
	}

	upperBound := min(time.Duration(float64(d.prevDelay)*3), d.maxDelay)

	delayRange := upperBound - d.initialDelay
	if delayRange <= 0 {
		d.prevDelay = d.initialDelay
		return
	}

	randomOffset := time.Duration(rand.Int64N(int64(delayRange))) //nolint:gosec // jitter does not need crypto rand
	d.prevDelay = d.initialDelay + randomOffset
}

// NextBackoff returns the delay picked by the last AddFailure, or zero before any failure.
func (d *DecorrelatedJitter) NextBackoff() time.Duration {
	if d.failures == 0 {
		return 0
	}
	return d.prevDelay
}

func calcExponentialDelay(attemptNumber int, initialDelay, maxDelay time.Duration) time.Duration {
	if attemptNumber < 0 {
		return 0
	}

	if attemptNumber >= maxShift {
		return maxDelay
	}

	backoffFactor := int64(1) << uint(attemptNumber)
	if initialDelay > 0 && backoffFactor > int64(maxDelay/initialDelay) {
		return maxDelay
	}

	return time.Duration(backoffFactor) * initialDelay
}

func clamp[T int | int64 | float64 | time.Duration](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
