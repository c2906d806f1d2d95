package ndarray

import (
	"fmt"
	"math"

	"github.com/ndforge/ndforge/pairs"
)

// Convenience creators. Each one allocates through Create and then fills the
// memory with a named engine operation, so every creator obeys the same
// ownership and error rules as Create itself. Defaults when omitted: context
// is the factory's default context, dtype is Float32.

// Zeros creates an array filled with zeros.
func (f *Factory) Zeros(shape Shape, opts ...Option) (*Array, error) {
	// Engine allocations are zero-initialized; no fill op needed.
	return f.Create(shape, opts...)
}

// Ones creates an array filled with ones.
func (f *Factory) Ones(shape Shape, opts ...Option) (*Array, error) {
	return f.Full(1, shape, opts...)
}

// Full creates an array filled with value.
func (f *Factory) Full(value float64, shape Shape, opts ...Option) (*Array, error) {
	a, err := f.Create(shape, opts...)
	if err != nil {
		return nil, err
	}
	params := pairs.New[string, any]()
	params.Add("value", value)
	return f.fillInto(a, OpFill, params)
}

// Arange creates a 1-D array of evenly spaced values in the half-open
// interval [start, stop), stepping by step. Fails with ErrInvalidArgument
// when step is zero or when the interval contains no values.
func (f *Factory) Arange(start, stop, step float64, opts ...Option) (*Array, error) {
	if f.closed {
		return nil, fmt.Errorf("arange: %w", ErrClosed)
	}
	if step == 0 {
		return nil, fmt.Errorf("%w: arange step must be non-zero", ErrInvalidArgument)
	}
	num := int(math.Ceil((stop - start) / step))
	if num <= 0 {
		return nil, fmt.Errorf("%w: arange from %v to %v by %v is empty",
			ErrInvalidArgument, start, stop, step)
	}
	a, err := f.Create(Shape{num}, opts...)
	if err != nil {
		return nil, err
	}
	params := pairs.New[string, any]()
	params.Add("start", start)
	params.Add("step", step)
	return f.fillInto(a, OpArange, params)
}

// Linspace creates a 1-D array of num evenly spaced values from start to
// stop. When endpoint is true, stop is the last value; otherwise the
// interval is half-open, matching Arange.
func (f *Factory) Linspace(start, stop float64, num int, endpoint bool, opts ...Option) (*Array, error) {
	if f.closed {
		return nil, fmt.Errorf("linspace: %w", ErrClosed)
	}
	if num <= 0 {
		return nil, fmt.Errorf("%w: linspace num must be positive, got %d", ErrInvalidArgument, num)
	}
	a, err := f.Create(Shape{num}, opts...)
	if err != nil {
		return nil, err
	}
	params := pairs.New[string, any]()
	params.Add("start", start)
	params.Add("stop", stop)
	params.Add("endpoint", endpoint)
	return f.fillInto(a, OpLinspace, params)
}

// RandomUniform creates an array of samples drawn uniformly from the
// half-open interval [low, high).
func (f *Factory) RandomUniform(low, high float64, shape Shape, opts ...Option) (*Array, error) {
	a, err := f.Create(shape, opts...)
	if err != nil {
		return nil, err
	}
	params := pairs.New[string, any]()
	params.Add("low", low)
	params.Add("high", high)
	return f.fillInto(a, OpRandomUniform, params)
}

// RandomNormal creates an array of samples drawn from a normal distribution
// with mean loc and standard deviation scale.
func (f *Factory) RandomNormal(loc, scale float64, shape Shape, opts ...Option) (*Array, error) {
	a, err := f.Create(shape, opts...)
	if err != nil {
		return nil, err
	}
	params := pairs.New[string, any]()
	params.Add("loc", loc)
	params.Add("scale", scale)
	return f.fillInto(a, OpRandomNormal, params)
}

// RandomStandardNormal creates an array of standard normal samples.
// Equivalent to RandomNormal(0, 1, shape).
func (f *Factory) RandomStandardNormal(shape Shape, opts ...Option) (*Array, error) {
	return f.RandomNormal(0, 1, shape, opts...)
}

// RandomMultinomial draws n category indices from the distribution described
// by pValues, a 1-D array of probabilities. The result is a 1-D array of n
// indices; its dtype defaults to Int32 instead of Float32.
func (f *Factory) RandomMultinomial(n int, pValues *Array, opts ...Option) (*Array, error) {
	return f.RandomMultinomialWithShape(n, pValues, Shape{n}, opts...)
}

// RandomMultinomialWithShape is RandomMultinomial with an explicit output
// shape; the shape's element count must equal n.
func (f *Factory) RandomMultinomialWithShape(n int, pValues *Array, shape Shape, opts ...Option) (*Array, error) {
	if f.closed {
		return nil, fmt.Errorf("random multinomial: %w", ErrClosed)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: multinomial sample count must be positive, got %d", ErrInvalidArgument, n)
	}
	if pValues == nil || pValues.Closed() {
		return nil, fmt.Errorf("multinomial probabilities: %w", ErrClosed)
	}
	if shape.NumElements() != n {
		return nil, fmt.Errorf("%w: multinomial shape %s holds %d elements, want %d",
			ErrInvalidArgument, shape, shape.NumElements(), n)
	}
	opts = append([]Option{WithDType(Int32)}, opts...)
	a, err := f.Create(shape, opts...)
	if err != nil {
		return nil, err
	}
	params := pairs.New[string, any]()
	params.Add("n", n)
	if _, err := f.Invoke(OpRandomMultinomial, []*Array{pValues}, []*Array{a}, params); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// fillInto runs a fill operation with a as its destination. On failure the
// freshly created array is released so the caller never sees a half-built
// allocation.
func (f *Factory) fillInto(a *Array, op string, params *pairs.List[string, any]) (*Array, error) {
	if _, err := f.Invoke(op, nil, []*Array{a}, params); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}
