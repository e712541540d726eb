package core

import "context"

// Stage transforms one input item into one output item. Network-bound
// pipeline stages (detail lookup, website fetch) implement this so the
// worker pool can drive them uniformly.
type Stage[In any, Out any] interface {
	Run(ctx context.Context, in In) (Out, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc[In any, Out any] func(ctx context.Context, in In) (Out, error)

func (f StageFunc[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// TransientError marks an error as retryable by worker implementations.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LimitedTransientError is a transient error carrying its own retry budget,
// which caps (never raises) the pool-wide MaxRetries setting.
type LimitedTransientError struct {
	Err          error
	ExtraRetries int
}

func (e *LimitedTransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *LimitedTransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *LimitedTransientError) MaxExtraRetries() int {
	if e == nil || e.ExtraRetries < 0 {
		return 0
	}
	return e.ExtraRetries
}
