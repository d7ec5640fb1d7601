package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Function names exposed by the remote function surface.
const (
	FnCalculateHealthScore = "calculateHealthScore"
	FnGetHealthHistory     = "getHealthHistory"
	FnSendHealthEmail      = "sendHealthEmail"
)

// Invoker calls a named remote function with a JSON payload. One attempt per
// call; implementations never retry.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error)
}

// UnconfiguredEndpointError reports a function name missing from the
// endpoint table.
type UnconfiguredEndpointError struct {
	Name string
}

func (e *UnconfiguredEndpointError) Error() string {
	return fmt.Sprintf("no URL configured for function: %s", e.Name)
}

// TransportError wraps network level failures.
type TransportError struct {
	Name string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("call %s: %v", e.Name, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx answer.
type HTTPError struct {
	Name   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("call %s: HTTP %d", e.Name, e.Status)
}

// MalformedResponseError reports a body that is not the expected JSON.
type MalformedResponseError struct {
	Name string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("call %s: malformed response: %v", e.Name, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UnavailableError is returned when the remote surface was disabled at startup.
type UnavailableError struct {
	Name string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("remote function %s not available", e.Name)
}

// Unavailable is the invoker used when remote calls are turned off.
type Unavailable struct{}

// Invoke always fails with UnavailableError.
func (Unavailable) Invoke(_ context.Context, name string, _ any) (json.RawMessage, error) {
	return nil, &UnavailableError{Name: name}
}

// IsUnavailable reports whether err came from a disabled remote.
func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}
