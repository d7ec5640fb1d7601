package remote

import (
	"context"
	"encoding/json"
)

// Result is the outcome of a typed remote call.
type Result[T any] struct {
	Value T
	Err   error
}

// validator is implemented by response types that can check their own content.
type validator interface {
	Validate() error
}

// Call invokes name and decodes the answer into T. Decode failures, and
// values whose Validate method fails, surface as MalformedResponseError.
func Call[T any](ctx context.Context, inv Invoker, name string, payload any) Result[T] {
	raw, err := inv.Invoke(ctx, name, payload)
	if err != nil {
		return Result[T]{Err: err}
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return Result[T]{Err: &MalformedResponseError{Name: name, Err: err}}
	}
	if v, ok := any(value).(validator); ok {
		if err := v.Validate(); err != nil {
			return Result[T]{Err: &MalformedResponseError{Name: name, Err: err}}
		}
	}
	return Result[T]{Value: value}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// OrElse returns the remote value, or the fallback result when the call
// failed for any reason. usedFallback tells which branch ran.
func (r Result[T]) OrElse(fallback func() T) (value T, usedFallback bool) {
	if r.Err == nil {
		return r.Value, false
	}
	return fallback(), true
}
