package fn

import (
	"context"
	"math/rand"
	"time"
)

// RetryOpts configures retry behavior.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
}

// DefaultRetry provides sensible retry defaults.
var DefaultRetry = RetryOpts{
	MaxAttempts: 3,
	InitialWait: time.Second,
	MaxWait:     30 * time.Second,
	Jitter:      true,
}

// Retry retries f up to MaxAttempts times with exponential backoff.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	var result Result[T]
	wait := opts.InitialWait

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		result = f(ctx)
		if result.IsOk() {
			return result
		}
		if attempt == opts.MaxAttempts-1 {
			break
		}
		// Check context before sleeping
		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		default:
		}

		sleepDur := wait
		if opts.Jitter {
			sleepDur = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		if sleepDur > opts.MaxWait {
			sleepDur = opts.MaxWait
		}

		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(sleepDur):
		}

		wait *= 2
		if wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
	return result
}

// RetryStage wraps a Stage with retry logic.
func RetryStage[In, Out any](opts RetryOpts, stage Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		return Retry(ctx, opts, func(ctx context.Context) Result[Out] {
			return stage(ctx, in)
		})
	}
}

// RepairRetry calls call with input once, and if the result validates
// against validate, returns it unchanged. On validation failure it derives
// a repaired input from repair (typically: the original input plus the
// validation error, fed back to an LLM as a correction prompt) and calls
// call exactly once more. A second validation failure is terminal — unlike
// Retry, RepairRetry does not loop, since a repair prompt that fails twice
// is unlikely to succeed on a third identical attempt.
func RepairRetry[In, Out any](ctx context.Context, input In, call func(context.Context, In) Result[Out], validate func(Out) error, repair func(In, error) In) Result[Out] {
	result := call(ctx, input)
	if result.IsErr() {
		return result
	}
	v, _ := result.Unwrap()
	verr := validate(v)
	if verr == nil {
		return result
	}

	repaired := repair(input, verr)
	result2 := call(ctx, repaired)
	if result2.IsErr() {
		return result2
	}
	v2, _ := result2.Unwrap()
	if verr2 := validate(v2); verr2 != nil {
		return Err[Out](verr2)
	}
	return result2
}
