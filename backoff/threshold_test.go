package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestThresholdBuckets_NextBackoff(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		age      time.Duration // how long ago the failures were recorded
		want     time.Duration
	}{
		{name: "no failures", failures: 0, want: 0},
		{name: "one failure", failures: 1, want: 5 * time.Second},
		{name: "four failures stay in first bucket", failures: 4, want: 5 * time.Second},
		{name: "five failures", failures: 5, want: 10 * time.Second},
		{name: "ten failures", failures: 10, want: 30 * time.Second},
		{name: "twenty failures keep highest bucket", failures: 20, want: 30 * time.Second},
		{name: "ten failures inside window", failures: 10, age: 59 * time.Second, want: 30 * time.Second},
		{name: "ten failures older than window", failures: 10, age: 61 * time.Second, want: 0},
		{name: "failures exactly window old expire", failures: 10, age: 60 * time.Second, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := clockwork.NewFakeClock()
			f := DefaultThresholdBucketsFactory()
			f.Clock = clock
			s := f.CreateStrategy()

			for range tt.failures {
				s.AddFailure()
			}
			clock.Advance(tt.age)

			if got := s.NextBackoff(); got != tt.want {
				t.Errorf("NextBackoff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestThresholdBuckets_SlidingWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewThresholdBuckets(DefaultBuckets, time.Minute, clock)

	// Four old failures, then one fresh one: five total but only until the
	// old ones age out.
	for range 4 {
		s.AddFailure()
	}
	clock.Advance(50 * time.Second)
	s.AddFailure()

	if got := s.NextBackoff(); got != 10*time.Second {
		t.Errorf("NextBackoff() = %v, want 10s", got)
	}

	clock.Advance(15 * time.Second)

	if got := s.Failures(); got != 1 {
		t.Errorf("Failures() = %d, want 1", got)
	}
	if got := s.NextBackoff(); got != 5*time.Second {
		t.Errorf("NextBackoff() after old failures expired = %v, want 5s", got)
	}

	clock.Advance(time.Minute)
	if got := s.NextBackoff(); got != 0 {
		t.Errorf("NextBackoff() after all failures expired = %v, want 0", got)
	}
}

func TestThresholdBuckets_PruneOnAddFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewThresholdBuckets(DefaultBuckets, time.Minute, clock)

	for range 100 {
		s.AddFailure()
		clock.Advance(10 * time.Second)
	}

	// Only the last six failures were younger than a minute when the final
	// one was recorded.
	if got := len(s.failures); got > 6 {
		t.Errorf("expected at most 6 retained timestamps, got %d", got)
	}
}

func TestThresholdBuckets_UnsortedBuckets(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &ThresholdBucketsFactory{
		Buckets: []Bucket{
			{Threshold: 10, Delay: 30 * time.Second},
			{Threshold: 1, Delay: 5 * time.Second},
			{Threshold: 5, Delay: 10 * time.Second},
		},
		MonitoringPeriod: time.Minute,
		Clock:            clock,
	}

	s := f.CreateStrategy()
	for range 6 {
		s.AddFailure()
	}

	if got := s.NextBackoff(); got != 10*time.Second {
		t.Errorf("NextBackoff() = %v, want 10s", got)
	}

	if f.Buckets[0].Threshold != 10 {
		t.Error("factory buckets must not be reordered in place")
	}
}

func TestThresholdBuckets_IndependentInstances(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := DefaultThresholdBucketsFactory()
	f.Clock = clock

	a := f.CreateStrategy()
	b := f.CreateStrategy()

	for range 5 {
		a.AddFailure()
	}

	if got := a.NextBackoff(); got != 10*time.Second {
		t.Errorf("a.NextBackoff() = %v, want 10s", got)
	}
	if got := b.NextBackoff(); got != 0 {
		t.Errorf("b.NextBackoff() = %v, want 0", got)
	}
}

func TestThresholdBuckets_RepeatedQueries(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewThresholdBuckets(DefaultBuckets, time.Minute, clock)
	s.AddFailure()

	for range 5 {
		if got := s.NextBackoff(); got != 5*time.Second {
			t.Fatalf("NextBackoff() = %v, want 5s", got)
		}
	}
}

func TestThresholdBuckets_ExtremeThresholdsSorted(t *testing.T) {
	s := NewThresholdBuckets([]Bucket{
		{Threshold: math.MaxInt, Delay: time.Hour},
		{Threshold: math.MinInt, Delay: time.Second},
		{Threshold: -1, Delay: 2 * time.Second},
		{Threshold: 3, Delay: 3 * time.Second},
	}, time.Minute, clockwork.NewFakeClock())

	want := []int{math.MinInt, -1, 3, math.MaxInt}
	for i, b := range s.buckets {
		if b.Threshold != want[i] {
			t.Fatalf("bucket %d threshold = %d, want %d", i, b.Threshold, want[i])
		}
	}

	if got := s.NextBackoff(); got != 2*time.Second {
		t.Errorf("NextBackoff() = %v, want 2s", got)
	}
}
