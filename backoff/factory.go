package backoff

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by NewFactory when the configuration cannot produce a strategy.
var ErrInvalidConfig = errors.New("invalid backoff config")

// Type selects the backoff algorithm built by NewFactory.
type Type int

const (
	// TypeConstant waits a fixed delay (default).
	TypeConstant Type = iota
	// TypeThresholdBuckets escalates the delay with recent failure counts.
	TypeThresholdBuckets
	// TypeExponential doubles the delay with every consecutive failure.
	TypeExponential
	// TypeJittered adds random jitter to exponential backoff.
	TypeJittered
	// TypeDecorrelated uses AWS-style decorrelated jitter.
	TypeDecorrelated
)

var typeNames = map[Type]string{
	TypeConstant:         "constant",
	TypeThresholdBuckets: "threshold_buckets",
	TypeExponential:      "exponential",
	TypeJittered:         "jittered",
	TypeDecorrelated:     "decorrelated",
}

// String returns the configuration name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses a configuration name. The empty string maps to TypeConstant.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeConstant, nil
	}

	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown type %q", ErrInvalidConfig, s)
}

// Config holds plain configuration values for every supported strategy.
// Only the fields relevant to Type are read; zero values fall back to defaults.
type Config struct {
	Type Type

	// Backoff is the fixed delay of TypeConstant.
	Backoff time.Duration

	// Buckets and MonitoringPeriod configure TypeThresholdBuckets.
	Buckets          []Bucket
	MonitoringPeriod time.Duration

	// InitialDelay, MaxDelay and JitterFactor configure the exponential family.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
}

// Defaults for the exponential family.
const (
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultJitterFactor = 0.1
)

// NewFactory validates cfg and returns the matching Factory.
func NewFactory(cfg Config) (Factory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeThresholdBuckets:
		f := DefaultThresholdBucketsFactory()
		if len(cfg.Buckets) > 0 {
			f.Buckets = cfg.Buckets
		}
		if cfg.MonitoringPeriod > 0 {
			f.MonitoringPeriod = cfg.MonitoringPeriod
		}
		return f, nil

	case TypeExponential:
		return &ExponentialFactory{
			InitialDelay: orDefault(cfg.InitialDelay, DefaultInitialDelay),
			MaxDelay:     orDefault(cfg.MaxDelay, DefaultMaxDelay),
		}, nil

	case TypeJittered:
		return &JitteredFactory{
			InitialDelay: orDefault(cfg.InitialDelay, DefaultInitialDelay),
			MaxDelay:     orDefault(cfg.MaxDelay, DefaultMaxDelay),
			JitterFactor: orDefault(cfg.JitterFactor, DefaultJitterFactor),
		}, nil

	case TypeDecorrelated:
		return &DecorrelatedJitterFactory{
			InitialDelay: orDefault(cfg.InitialDelay, DefaultInitialDelay),
			MaxDelay:     orDefault(cfg.MaxDelay, DefaultMaxDelay),
		}, nil

	default:
		if cfg.Backoff == 0 {
			return NewDefaultFactory(), nil
		}
		return &ConstantTimeFactory{Backoff: cfg.Backoff}, nil
	}
}

func (cfg Config) validate() error {
	if _, ok := typeNames[cfg.Type]; !ok {
		return fmt.Errorf("%w: unknown type %s", ErrInvalidConfig, cfg.Type)
	}

	durations := map[string]time.Duration{
		"backoff":           cfg.Backoff,
		"monitoring_period": cfg.MonitoringPeriod,
		"initial_delay":     cfg.InitialDelay,
		"max_delay":         cfg.MaxDelay,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidConfig, name, d)
		}
	}

	for i, b := range cfg.Buckets {
		if b.Threshold < 1 {
			return fmt.Errorf("%w: bucket %d threshold must be at least 1, got %d", ErrInvalidConfig, i, b.Threshold)
		}
		if b.Delay < 0 {
			return fmt.Errorf("%w: bucket %d delay must not be negative, got %s", ErrInvalidConfig, i, b.Delay)
		}
	}

	if cfg.JitterFactor < 0 || cfg.JitterFactor > 1 {
		return fmt.Errorf("%w: jitter_factor must be between 0 and 1, got %v", ErrInvalidConfig, cfg.JitterFactor)
	}

	return nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
