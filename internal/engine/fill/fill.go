// Package fill renders the host-side element data for the named fill
// operations shared by the engines: constant fill, ranges, and random
// distributions. The native engine writes the rendered bytes straight into
// its buffers; the GPU engine uploads them through the queue.
package fill

import (
	"fmt"
	"math"
	"math/rand"
	"unsafe"

	"github.com/ndforge/ndforge/internal/ndarray"
	"github.com/ndforge/ndforge/pairs"
)

// Render produces the raw element bytes for one fill operation on an
// allocation described by desc. Unknown operation names and malformed
// parameter sets fail with ndarray.ErrInvalidArgument.
func Render(rng *rand.Rand, desc ndarray.DataDesc, op string, params *pairs.List[string, any]) ([]byte, error) {
	n := desc.Shape.NumElements()
	var gen func(i int) float64
	switch op {
	case ndarray.OpFill:
		value, err := FloatParam(params, "value")
		if err != nil {
			return nil, err
		}
		gen = func(int) float64 { return value }

	case ndarray.OpArange:
		start, err := FloatParam(params, "start")
		if err != nil {
			return nil, err
		}
		step, err := FloatParam(params, "step")
		if err != nil {
			return nil, err
		}
		gen = func(i int) float64 { return start + float64(i)*step }

	case ndarray.OpLinspace:
		start, err := FloatParam(params, "start")
		if err != nil {
			return nil, err
		}
		stop, err := FloatParam(params, "stop")
		if err != nil {
			return nil, err
		}
		endpoint, err := BoolParam(params, "endpoint")
		if err != nil {
			return nil, err
		}
		div := n
		if endpoint && n > 1 {
			div = n - 1
		}
		step := (stop - start) / float64(div)
		gen = func(i int) float64 { return start + float64(i)*step }

	case ndarray.OpRandomUniform:
		low, err := FloatParam(params, "low")
		if err != nil {
			return nil, err
		}
		high, err := FloatParam(params, "high")
		if err != nil {
			return nil, err
		}
		gen = func(int) float64 { return low + rng.Float64()*(high-low) }

	case ndarray.OpRandomNormal:
		loc, err := FloatParam(params, "loc")
		if err != nil {
			return nil, err
		}
		scale, err := FloatParam(params, "scale")
		if err != nil {
			return nil, err
		}
		gen = func(int) float64 { return loc + rng.NormFloat64()*scale }

	default:
		return nil, fmt.Errorf("%w: unsupported fill operation %q", ndarray.ErrInvalidArgument, op)
	}

	buf := make([]byte, n*desc.DataType.Size())
	store, err := storeFunc(desc.DataType, buf)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		store(i, gen(i))
	}
	return buf, nil
}

// Multinomial draws n category indices from the distribution probs. The
// probabilities need not sum to one; they are treated as relative weights.
func Multinomial(rng *rand.Rand, n int, probs []float64) ([]int, error) {
	total := 0.0
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: multinomial probability %v at index %d", ndarray.ErrInvalidArgument, p, i)
		}
		total += p
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: multinomial probabilities sum to %v", ndarray.ErrInvalidArgument, total)
	}

	out := make([]int, n)
	for i := range out {
		r := rng.Float64() * total
		acc := 0.0
		idx := len(probs) - 1
		for j, p := range probs {
			acc += p
			if r < acc {
				idx = j
				break
			}
		}
		out[i] = idx
	}
	return out, nil
}

// DecodeFloats reads a float-typed allocation's bytes as []float64.
func DecodeFloats(desc ndarray.DataDesc, data []byte) ([]float64, error) {
	n := desc.Shape.NumElements()
	out := make([]float64, n)
	switch desc.DataType {
	case ndarray.Float32:
		src := unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
		for i, v := range src {
			out[i] = float64(v)
		}
	case ndarray.Float64:
		copy(out, unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), n))
	default:
		return nil, fmt.Errorf("%w: expected a float array, got %s", ndarray.ErrInvalidArgument, desc.DataType)
	}
	return out, nil
}

// EncodeIndices writes category indices into the byte layout of an integer
// allocation described by desc.
func EncodeIndices(desc ndarray.DataDesc, indices []int) ([]byte, error) {
	buf := make([]byte, len(indices)*desc.DataType.Size())
	switch desc.DataType {
	case ndarray.Int32:
		dst := unsafe.Slice((*int32)(unsafe.Pointer(&buf[0])), len(indices))
		for i, v := range indices {
			dst[i] = int32(v)
		}
	case ndarray.Int64:
		dst := unsafe.Slice((*int64)(unsafe.Pointer(&buf[0])), len(indices))
		for i, v := range indices {
			dst[i] = int64(v)
		}
	default:
		return nil, fmt.Errorf("%w: multinomial output must be int32 or int64, got %s",
			ndarray.ErrInvalidArgument, desc.DataType)
	}
	return buf, nil
}

// FloatParam extracts a required numeric parameter. The last entry with the
// given key wins when the list carries duplicates.
func FloatParam(params *pairs.List[string, any], key string) (float64, error) {
	v, ok := lookup(params, key)
	if !ok {
		return 0, fmt.Errorf("%w: missing parameter %q", ndarray.ErrInvalidArgument, key)
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, fmt.Errorf("%w: parameter %q is %T, want a number", ndarray.ErrInvalidArgument, key, v)
}

// IntParam extracts a required integer parameter.
func IntParam(params *pairs.List[string, any], key string) (int, error) {
	v, ok := lookup(params, key)
	if !ok {
		return 0, fmt.Errorf("%w: missing parameter %q", ndarray.ErrInvalidArgument, key)
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	}
	return 0, fmt.Errorf("%w: parameter %q is %T, want an integer", ndarray.ErrInvalidArgument, key, v)
}

// BoolParam extracts a required boolean parameter.
func BoolParam(params *pairs.List[string, any], key string) (bool, error) {
	v, ok := lookup(params, key)
	if !ok {
		return false, fmt.Errorf("%w: missing parameter %q", ndarray.ErrInvalidArgument, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: parameter %q is %T, want a bool", ndarray.ErrInvalidArgument, key, v)
	}
	return b, nil
}

func lookup(params *pairs.List[string, any], key string) (any, bool) {
	if params == nil {
		return nil, false
	}
	var found any
	ok := false
	for k, v := range params.All() {
		if k == key {
			found, ok = v, true
		}
	}
	return found, ok
}

func storeFunc(dtype ndarray.DataType, buf []byte) (func(i int, v float64), error) {
	if len(buf) == 0 {
		return func(int, float64) {}, nil
	}
	switch dtype {
	case ndarray.Float32:
		dst := unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), len(buf)/4)
		return func(i int, v float64) { dst[i] = float32(v) }, nil
	case ndarray.Float64:
		dst := unsafe.Slice((*float64)(unsafe.Pointer(&buf[0])), len(buf)/8)
		return func(i int, v float64) { dst[i] = v }, nil
	case ndarray.Int32:
		dst := unsafe.Slice((*int32)(unsafe.Pointer(&buf[0])), len(buf)/4)
		return func(i int, v float64) { dst[i] = int32(v) }, nil
	case ndarray.Int64:
		dst := unsafe.Slice((*int64)(unsafe.Pointer(&buf[0])), len(buf)/8)
		return func(i int, v float64) { dst[i] = int64(v) }, nil
	case ndarray.Uint8:
		return func(i int, v float64) { buf[i] = uint8(v) }, nil
	case ndarray.Bool:
		return func(i int, v float64) {
			if v != 0 {
				buf[i] = 1
			} else {
				buf[i] = 0
			}
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown dtype %d", ndarray.ErrInvalidArgument, int(dtype))
	}
}
