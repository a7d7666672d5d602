// Package retry provides retry logic with pluggable backoff strategies.
//
// Backoff strategies implement the BackoffStrategy interface:
//   - ExponentialBackoff: exponentially growing delay with jitter
//   - UniformBackoff: uniformly random delay within fixed bounds, for
//     quota-reset waits where growth buys nothing
//   - ConstantBackoff: fixed delay
//
// Wait is the cancellable sleep primitive used for every delay in the
// program; callers bound total wait time through the context.
package retry
