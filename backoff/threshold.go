package backoff

import (
	"cmp"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
)

// Bucket maps a failure count to the delay applied once that count is reached.
type Bucket struct {
	Threshold int
	Delay     time.Duration
}

// DefaultBuckets is the bucket list used by DefaultThresholdBucketsFactory.
var DefaultBuckets = []Bucket{
	{Threshold: 1, Delay: 5 * time.Second},
	{Threshold: 5, Delay: 10 * time.Second},
	{Threshold: 10, Delay: 30 * time.Second},
}

// DefaultMonitoringPeriod is the window used by DefaultThresholdBucketsFactory.
const DefaultMonitoringPeriod = 60 * time.Second

// ThresholdBucketsFactory creates ThresholdBuckets strategies.
//
// Buckets do not have to be sorted: every created strategy gets its own copy
// sorted ascending by threshold. Clock defaults to the real clock.
type ThresholdBucketsFactory struct {
	Buckets          []Bucket
	MonitoringPeriod time.Duration
	Clock            clockwork.Clock
}

// DefaultThresholdBucketsFactory returns a factory with buckets
// {1→5s, 5→10s, 10→30s} and a 60s monitoring window.
func DefaultThresholdBucketsFactory() *ThresholdBucketsFactory {
	return &ThresholdBucketsFactory{
		Buckets:          slices.Clone(DefaultBuckets),
		MonitoringPeriod: DefaultMonitoringPeriod,
	}
}

// CreateStrategy returns a new ThresholdBuckets strategy with an empty failure history.
func (f *ThresholdBucketsFactory) CreateStrategy() Strategy {
	return NewThresholdBuckets(f.Buckets, f.MonitoringPeriod, f.Clock)
}

// ThresholdBuckets escalates the delay with the number of failures recorded
// during the trailing monitoring period. Failures older than the period are
// forgotten, so the delay drops back once a burst of failures ages out.
type ThresholdBuckets struct {
	buckets          []Bucket
	monitoringPeriod time.Duration
	clock            clockwork.Clock
	failures         []time.Time
}

// NewThresholdBuckets creates a strategy from the given buckets. The slice is
// copied and sorted ascending by threshold. A nil clock means the real clock.
func NewThresholdBuckets(buckets []Bucket, monitoringPeriod time.Duration, clock clockwork.Clock) *ThresholdBuckets {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	sorted := slices.Clone(buckets)
	slices.SortStableFunc(sorted, func(a, b Bucket) int {
		return cmp.Compare(a.Threshold, b.Threshold)
	})

	return &ThresholdBuckets{
		buckets:          sorted,
		monitoringPeriod: monitoringPeriod,
		clock:            clock,
	}
}

// SetDefaults resets the strategy to the default buckets and window with the real clock.
func (t *ThresholdBuckets) SetDefaults() {
	*t = *NewThresholdBuckets(DefaultBuckets, DefaultMonitoringPeriod, nil)
}

// AddFailure records a failure at the current time and drops expired ones.
func (t *ThresholdBuckets) AddFailure() {
	t.failures = append(t.failures, t.clock.Now())
	t.prune()
}

// NextBackoff returns the delay of the highest threshold met by the failures
// still inside the monitoring period, or zero if no threshold is met.
func (t *ThresholdBuckets) NextBackoff() time.Duration {
	t.prune()

	count := len(t.failures)
	var backoff time.Duration
	for _, b := range t.buckets {
		if count >= b.Threshold {
			backoff = b.Delay
		}
	}

	return backoff
}

// Failures returns the number of failures inside the monitoring period.
func (t *ThresholdBuckets) Failures() int {
	t.prune()
	return len(t.failures)
}

// prune drops timestamps whose age is at least the monitoring period.
// Timestamps are appended in order, so expired ones form a prefix.
func (t *ThresholdBuckets) prune() {
	now := t.clock.Now()

	expired := 0
	for _, ts := range t.failures {
		if now.Sub(ts) < t.monitoringPeriod {
			break
		}
		expired++
	}

	if expired > 0 {
		t.failures = slices.Delete(t.failures, 0, expired)
	}
}
