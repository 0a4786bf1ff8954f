package backoff

import "time"

// Strategy decides how long a supervised task waits before its next attempt.
//
// A Strategy is owned by exactly one supervision loop and is never shared
// between tasks, so implementations do not need to be safe for concurrent use.
type Strategy interface {
	// AddFailure records one failed attempt.
	AddFailure()

	// NextBackoff returns the delay before the next attempt.
	// It may be called any number of times without recording anything.
	NextBackoff() time.Duration
}

// Factory builds independent Strategy instances from static configuration.
// Every call to CreateStrategy must return a fresh instance.
type Factory interface {
	CreateStrategy() Strategy
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func() Strategy

// CreateStrategy calls f.
func (f FactoryFunc) CreateStrategy() Strategy {
	return f()
}

// Defaulter is implemented by strategies that know their own default configuration.
type Defaulter interface {
	SetDefaults()
}

// DefaultStrategy constrains P to be a pointer to S that is both a Strategy
// and a Defaulter, so DefaultFactory can allocate and configure an S.
type DefaultStrategy[S any] interface {
	*S
	Strategy
	Defaulter
}

// DefaultFactory creates strategies of type S configured with their defaults.
//
// Example:
//
//	var f Factory = DefaultFactory[ConstantTime, *ConstantTime]{}
type DefaultFactory[S any, P DefaultStrategy[S]] struct{}

// CreateStrategy allocates a new S and applies its defaults.
func (DefaultFactory[S, P]) CreateStrategy() Strategy {
	p := P(new(S))
	p.SetDefaults()
	return p
}

// NewDefaultFactory returns the policy used when nothing else is configured:
// a constant five second delay.
func NewDefaultFactory() Factory {
	return DefaultFactory[ConstantTime, *ConstantTime]{}
}
