package ndarray

import "github.com/ndforge/ndforge/pairs"

// Names of the fill operations the convenience creators rely on. Every
// engine implements these; anything beyond them is engine-specific.
const (
	OpFill              = "fill"
	OpArange            = "arange"
	OpLinspace          = "linspace"
	OpRandomUniform     = "random_uniform"
	OpRandomNormal      = "random_normal"
	OpRandomMultinomial = "random_multinomial"
)

// Handle is an opaque reference to one native allocation inside an engine.
// Handle 0 is reserved and always invalid.
type Handle uint64

// DataDesc fully describes one native allocation: where it lives, its
// dimensions, and its element type.
type DataDesc struct {
	Context  Context
	Shape    Shape
	DataType DataType
}

// Engine is the boundary to the native array engine. It allocates and
// releases native memory and executes named operations; the ownership layer
// calls into it but does not implement any numeric semantics itself.
//
// Implementations report native-side failures as *EngineError carrying the
// operation name, and malformed operation names or parameter sets as
// ErrInvalidArgument. Neither is ever masked by the core.
type Engine interface {
	// Name returns the engine name (e.g. "Native", "WebGPU").
	Name() string

	// Device returns the device kind this engine allocates on.
	Device() Device

	// Allocate reserves zero-initialized native memory for one array.
	Allocate(ctx Context, shape Shape, dtype DataType) (Handle, error)

	// Write copies raw element data into an allocation. The data length
	// must match the allocation's byte size exactly.
	Write(h Handle, data []byte) error

	// Read copies an allocation's contents out of native memory.
	Read(h Handle) ([]byte, error)

	// Describe returns the descriptor for a live allocation.
	// The second result is false when the handle is unknown.
	Describe(h Handle) (DataDesc, bool)

	// Invoke executes a named native operation. Sources are read, dests
	// are written in place; when dest is empty the engine allocates the
	// outputs itself and returns their handles.
	Invoke(op string, src, dest []Handle, params *pairs.List[string, any]) ([]Handle, error)

	// Release frees one allocation. Releasing an unknown or already
	// released handle is a no-op.
	Release(h Handle) error
}
