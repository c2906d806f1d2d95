package ndarray

import "fmt"

// Array is a handle to one native memory allocation plus its description.
// Arrays are created by a Factory and stay attached to it until detached or
// closed; the owning factory releases still-attached arrays when it closes.
//
// An Array is a passive releasable unit from the ownership layer's point of
// view: numeric population of its memory is the engine's concern.
type Array struct {
	engine  Engine
	handle  Handle
	desc    DataDesc
	factory *Factory // current owner; nil when detached
	closed  bool
}

// Compile-time check that Array is an ownable resource.
var _ Resource = (*Array)(nil)

// Shape returns the array's dimensions.
func (a *Array) Shape() Shape {
	return a.desc.Shape
}

// DType returns the array's element type.
func (a *Array) DType() DataType {
	return a.desc.DataType
}

// Context returns the placement context the array was allocated on.
func (a *Array) Context() Context {
	return a.desc.Context
}

// Desc returns the array's full descriptor.
func (a *Array) Desc() DataDesc {
	return a.desc
}

// Handle returns the engine handle backing this array.
func (a *Array) Handle() Handle {
	return a.handle
}

// Closed reports whether the array's native memory has been released.
func (a *Array) Closed() bool {
	return a.closed
}

// Data reads the array's contents out of native memory.
// Fails with ErrClosed after the array has been released.
func (a *Array) Data() ([]byte, error) {
	if a.closed {
		return nil, fmt.Errorf("data: %w", ErrClosed)
	}
	return a.engine.Read(a.handle)
}

// Set writes raw element data into the array's native memory. The data
// length must match the array's byte size exactly.
func (a *Array) Set(data []byte) error {
	if a.closed {
		return fmt.Errorf("set: %w", ErrClosed)
	}
	if len(data) != a.desc.Shape.NumElements()*a.desc.DataType.Size() {
		return fmt.Errorf("%w: data length %d does not match %s of %s",
			ErrInvalidArgument, len(data), a.desc.Shape, a.desc.DataType)
	}
	return a.engine.Write(a.handle, data)
}

// Float32s reads the array's contents as a []float32.
// Fails with ErrInvalidArgument if the array's dtype is not Float32.
func (a *Array) Float32s() ([]float32, error) {
	if a.desc.DataType != Float32 {
		return nil, fmt.Errorf("%w: array dtype is %s, not float32", ErrInvalidArgument, a.desc.DataType)
	}
	data, err := a.Data()
	if err != nil {
		return nil, err
	}
	return bytesToFloat32(data), nil
}

// Close releases the array's native memory. Closing is idempotent: a second
// Close is a no-op and never double-frees. If the array is still attached,
// it is removed from its owner's tracked set first.
func (a *Array) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.factory != nil {
		a.factory.Detach(a)
	}
	return a.engine.Release(a.handle)
}
