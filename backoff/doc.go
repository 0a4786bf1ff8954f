// Package backoff provides the retry delay strategies used by the runner
// package.
//
// A Strategy is stateful: the supervision loop calls AddFailure after every
// failed attempt and then asks NextBackoff how long to wait. A Factory holds
// the static configuration and manufactures one Strategy per supervised task,
// so failure history is never shared between tasks.
//
// # Strategies
//
//   - ConstantTime: always waits the same delay (default 5s)
//   - ThresholdBuckets: escalates the delay with the number of failures seen
//     inside a sliding monitoring window
//   - Exponential: initialDelay * 2^(failures-1), capped at maxDelay
//   - Jittered: exponential with ±jitterFactor randomization
//   - DecorrelatedJitter: AWS-style decorrelated jitter
//
// # Basic Usage
//
//	factory := &backoff.ThresholdBucketsFactory{
//	    Buckets: []backoff.Bucket{
//	        {Threshold: 1, Delay: 5 * time.Second},
//	        {Threshold: 5, Delay: 10 * time.Second},
//	    },
//	    MonitoringPeriod: time.Minute,
//	}
//	s := factory.CreateStrategy()
//	s.AddFailure()
//	s.NextBackoff() // 5s
//
// Strategies can also be built from plain configuration values with NewFactory.
package backoff
