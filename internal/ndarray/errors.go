package ndarray

import (
	"errors"
	"fmt"
)

// Error sentinels for the two caller-fault categories. Engine-side failures
// are reported as *EngineError instead; key lookup misses are reported as
// boolean results, not errors.
var (
	// ErrClosed reports an operation on a closed factory or array.
	ErrClosed = errors.New("ndarray: resource closed")

	// ErrInvalidArgument reports a malformed shape, data type, operation
	// name, or parameter set.
	ErrInvalidArgument = errors.New("ndarray: invalid argument")
)

// EngineError reports a failure inside the native engine. It carries the
// name of the engine operation that failed and is propagated unchanged
// through the ownership layer; no retry is attempted.
type EngineError struct {
	Op  string // engine operation name ("allocate", "release", or an invoke op)
	Err error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("ndarray: engine operation %q failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying engine failure.
func (e *EngineError) Unwrap() error {
	return e.Err
}
