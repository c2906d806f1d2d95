// Package ndarray implements the native array resource-management core:
// resource handles, the factory ownership tree, and the engine boundary.
package ndarray

import "fmt"

// DataType represents the element type of a native array.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
)

// DefaultDataType is used by creators when no data type is supplied.
const DefaultDataType = Float32

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// Valid reports whether the data type is one of the supported constants.
func (dt DataType) Valid() bool {
	return dt >= Float32 && dt <= Bool
}

// ParseDataType converts a data type name, as produced by String, back into
// a DataType.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "uint8":
		return Uint8, nil
	case "bool":
		return Bool, nil
	default:
		return 0, fmt.Errorf("%w: unknown dtype %q", ErrInvalidArgument, name)
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}
