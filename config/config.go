// Package config loads the YAML configuration of supervised-task services.
package config

import (
	"fmt"
	"time"

	"github.com/utkarsh5026/apptask/backoff"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Runner  RunnerConfig  `yaml:"runner"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// RunnerConfig holds settings shared by every task of a runner.
type RunnerConfig struct {
	RateLimit float64 `yaml:"rate_limit"` // attempts per second, 0 = unlimited
	Burst     int     `yaml:"burst"`
}

// BackoffConfig selects and configures the retry delay policy.
type BackoffConfig struct {
	Type             string         `yaml:"type"`
	Backoff          time.Duration  `yaml:"backoff"`
	Buckets          []BucketConfig `yaml:"buckets"`
	MonitoringPeriod time.Duration  `yaml:"monitoring_period"`
	InitialDelay     time.Duration  `yaml:"initial_delay"`
	MaxDelay         time.Duration  `yaml:"max_delay"`
	JitterFactor     float64        `yaml:"jitter_factor"`
}

// BucketConfig is one threshold bucket.
type BucketConfig struct {
	Threshold int           `yaml:"threshold"`
	Delay     time.Duration `yaml:"delay"`
}

// TypeName returns the canonical name of the configured backoff type.
func (c BackoffConfig) TypeName() string {
	t, err := backoff.ParseType(c.Type)
	if err != nil {
		return c.Type
	}
	return t.String()
}

// Strategy converts the section into a backoff.Config.
func (c BackoffConfig) Strategy() (backoff.Config, error) {
	t, err := backoff.ParseType(c.Type)
	if err != nil {
		return backoff.Config{}, err
	}

	cfg := backoff.Config{
		Type:             t,
		Backoff:          c.Backoff,
		MonitoringPeriod: c.MonitoringPeriod,
		InitialDelay:     c.InitialDelay,
		MaxDelay:         c.MaxDelay,
		JitterFactor:     c.JitterFactor,
	}
	for _, b := range c.Buckets {
		cfg.Buckets = append(cfg.Buckets, backoff.Bucket{Threshold: b.Threshold, Delay: b.Delay})
	}

	return cfg, nil
}

// Factory builds the backoff.Factory described by the section.
func (c BackoffConfig) Factory() (backoff.Factory, error) {
	cfg, err := c.Strategy()
	if err != nil {
		return nil, fmt.Errorf("backoff: %w", err)
	}

	f, err := backoff.NewFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("backoff: %w", err)
	}
	return f, nil
}
