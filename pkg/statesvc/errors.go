package statesvc

import (
	"fmt"

	"github.com/vango-dev/statesvc/internal/errors"
)

// Error is the structured error type returned by this package.
// Match errors with errors.Is against the sentinels below.
type Error = errors.Error

// Sentinel errors. errors.Is matches any *Error carrying the same code,
// whatever detail was attached where it was raised.
var (
	// ErrInvalidArgument is returned when SetState receives a nil payload.
	ErrInvalidArgument = errors.New("E001")

	// ErrKeyConflict is returned when an explicit cache key and the key
	// derived by Definition.UniqueKey disagree.
	ErrKeyConflict = errors.New("E002")

	// ErrHookFailure wraps an error returned, or a panic raised, by a
	// definition-supplied hook.
	ErrHookFailure = errors.New("E003")

	// ErrInvalidComponent is returned for nil or non-comparable components.
	ErrInvalidComponent = errors.New("E004")

	// ErrUnknownAction is returned by Instance.Dispatch for undeclared actions.
	ErrUnknownAction = errors.New("E005")

	// ErrUnmounted is returned when a binding is used after WillUnmount.
	ErrUnmounted = errors.New("E006")
)

func hookFailure(service, hook string, cause error) *Error {
	return errors.New("E003").
		WithDetailf("%s.%s", service, hook).
		Wrap(cause)
}

// guard runs fn, turning a returned error or a panic into a hook failure.
func guard(service, hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = hookFailure(service, hook, fmt.Errorf("panic: %v", r))
		}
	}()
	if ferr := fn(); ferr != nil {
		return hookFailure(service, hook, ferr)
	}
	return nil
}
