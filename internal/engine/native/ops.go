package native

import (
	"fmt"
	"unsafe"

	"github.com/ndforge/ndforge/internal/engine/fill"
	"github.com/ndforge/ndforge/internal/ndarray"
	"github.com/ndforge/ndforge/pairs"
)

// Invoke executes a named operation. The fill operations write into their
// single destination; the element-wise operations read two sources and
// either write into a supplied destination or allocate the output here.
func (e *Engine) Invoke(op string, src, dest []ndarray.Handle, params *pairs.List[string, any]) ([]ndarray.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch op {
	case ndarray.OpFill, ndarray.OpArange, ndarray.OpLinspace,
		ndarray.OpRandomUniform, ndarray.OpRandomNormal:
		return e.runFill(op, src, dest, params)
	case ndarray.OpRandomMultinomial:
		return e.runMultinomial(op, src, dest, params)
	case "add":
		return e.runBinary(op, src, dest, func(a, b float64) float64 { return a + b })
	case "sub":
		return e.runBinary(op, src, dest, func(a, b float64) float64 { return a - b })
	case "mul":
		return e.runBinary(op, src, dest, func(a, b float64) float64 { return a * b })
	case "div":
		return e.runBinary(op, src, dest, func(a, b float64) float64 { return a / b })
	default:
		return nil, fmt.Errorf("%w: unsupported operation %q", ndarray.ErrInvalidArgument, op)
	}
}

func (e *Engine) runFill(op string, src, dest []ndarray.Handle, params *pairs.List[string, any]) ([]ndarray.Handle, error) {
	if len(src) != 0 || len(dest) != 1 {
		return nil, fmt.Errorf("%w: %s takes no sources and one destination", ndarray.ErrInvalidArgument, op)
	}
	a, err := e.get(op, dest[0])
	if err != nil {
		return nil, err
	}
	data, err := fill.Render(e.rng, a.desc, op, params)
	if err != nil {
		return nil, err
	}
	copy(a.data, data)
	return dest, nil
}

func (e *Engine) runMultinomial(op string, src, dest []ndarray.Handle, params *pairs.List[string, any]) ([]ndarray.Handle, error) {
	if len(src) != 1 || len(dest) != 1 {
		return nil, fmt.Errorf("%w: %s takes one source and one destination", ndarray.ErrInvalidArgument, op)
	}
	p, err := e.get(op, src[0])
	if err != nil {
		return nil, err
	}
	out, err := e.get(op, dest[0])
	if err != nil {
		return nil, err
	}
	n, err := fill.IntParam(params, "n")
	if err != nil {
		return nil, err
	}
	if out.desc.Shape.NumElements() != n {
		return nil, fmt.Errorf("%w: destination %s holds %d elements, want %d",
			ndarray.ErrInvalidArgument, out.desc.Shape, out.desc.Shape.NumElements(), n)
	}
	probs, err := fill.DecodeFloats(p.desc, p.data)
	if err != nil {
		return nil, err
	}
	indices, err := fill.Multinomial(e.rng, n, probs)
	if err != nil {
		return nil, err
	}
	data, err := fill.EncodeIndices(out.desc, indices)
	if err != nil {
		return nil, err
	}
	copy(out.data, data)
	return dest, nil
}

// runBinary applies an element-wise operation over two same-shape float
// sources. When dest is empty, the output allocation is created here and
// its handle returned for the ownership layer to register.
func (e *Engine) runBinary(op string, src, dest []ndarray.Handle, fn func(a, b float64) float64) ([]ndarray.Handle, error) {
	if len(src) != 2 {
		return nil, fmt.Errorf("%w: %s takes two sources, got %d", ndarray.ErrInvalidArgument, op, len(src))
	}
	a, err := e.get(op, src[0])
	if err != nil {
		return nil, err
	}
	b, err := e.get(op, src[1])
	if err != nil {
		return nil, err
	}
	if !a.desc.Shape.Equal(b.desc.Shape) {
		return nil, fmt.Errorf("%w: %s shape mismatch: %s vs %s", ndarray.ErrInvalidArgument, op, a.desc.Shape, b.desc.Shape)
	}
	if a.desc.DataType != b.desc.DataType {
		return nil, fmt.Errorf("%w: %s dtype mismatch: %s vs %s", ndarray.ErrInvalidArgument, op, a.desc.DataType, b.desc.DataType)
	}

	var out *allocation
	switch len(dest) {
	case 0:
		e.next++
		out = &allocation{
			desc: ndarray.DataDesc{Context: a.desc.Context, Shape: a.desc.Shape.Clone(), DataType: a.desc.DataType},
			data: make([]byte, len(a.data)),
		}
		e.allocs[e.next] = out
		dest = []ndarray.Handle{e.next}
	case 1:
		out, err = e.get(op, dest[0])
		if err != nil {
			return nil, err
		}
		if !out.desc.Shape.Equal(a.desc.Shape) || out.desc.DataType != a.desc.DataType {
			return nil, fmt.Errorf("%w: %s destination does not match sources", ndarray.ErrInvalidArgument, op)
		}
	default:
		return nil, fmt.Errorf("%w: %s takes at most one destination, got %d", ndarray.ErrInvalidArgument, op, len(dest))
	}

	n := a.desc.Shape.NumElements()
	switch a.desc.DataType {
	case ndarray.Float32:
		av := asFloat32(a.data, n)
		bv := asFloat32(b.data, n)
		ov := asFloat32(out.data, n)
		for i := 0; i < n; i++ {
			ov[i] = float32(fn(float64(av[i]), float64(bv[i])))
		}
	case ndarray.Float64:
		av := asFloat64(a.data, n)
		bv := asFloat64(b.data, n)
		ov := asFloat64(out.data, n)
		for i := 0; i < n; i++ {
			ov[i] = fn(av[i], bv[i])
		}
	default:
		return nil, fmt.Errorf("%w: %s supports float32 and float64, got %s", ndarray.ErrInvalidArgument, op, a.desc.DataType)
	}
	return dest, nil
}

func asFloat32(data []byte, n int) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
}

func asFloat64(data []byte, n int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), n)
}
