package backoff

import "time"

// DefaultConstantBackoff is the delay used by ConstantTime when none is configured.
const DefaultConstantBackoff = 5 * time.Second

// ConstantTimeFactory creates ConstantTime strategies with a fixed delay.
type ConstantTimeFactory struct {
	Backoff time.Duration
}

// CreateStrategy returns a new ConstantTime strategy.
func (f *ConstantTimeFactory) CreateStrategy() Strategy {
	return &ConstantTime{backoff: f.Backoff}
}

// ConstantTime waits the same delay after every failure.
type ConstantTime struct {
	backoff time.Duration
}

// NewConstantTime creates a constant strategy with the given delay.
func NewConstantTime(backoff time.Duration) *ConstantTime {
	return &ConstantTime{backoff: backoff}
}

// SetDefaults sets the delay to DefaultConstantBackoff.
func (c *ConstantTime) SetDefaults() {
	c.backoff = DefaultConstantBackoff
}

// AddFailure does nothing; the delay does not depend on history.
func (c *ConstantTime) AddFailure() {}

// NextBackoff returns the configured delay.
func (c *ConstantTime) NextBackoff() time.Duration {
	return c.backoff
}
