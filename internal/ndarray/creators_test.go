package ndarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArangeValidation(t *testing.T) {
	f, _ := newTestFactory(t)

	_, err := f.Arange(0, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument, "zero step")

	_, err = f.Arange(5, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument, "empty range")

	a, err := f.Arange(0, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, Shape{4}, a.Shape(), "ceil((10-0)/3) elements")
}

func TestLinspaceValidation(t *testing.T) {
	f, _ := newTestFactory(t)

	_, err := f.Linspace(0, 1, 0, true)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	a, err := f.Linspace(0, 1, 5, true)
	require.NoError(t, err)
	assert.Equal(t, Shape{5}, a.Shape())
}

func TestRandomMultinomialValidation(t *testing.T) {
	f, _ := newTestFactory(t)
	p, err := f.Create(Shape{3})
	require.NoError(t, err)

	_, err = f.RandomMultinomial(0, p)
	assert.ErrorIs(t, err, ErrInvalidArgument, "non-positive sample count")

	_, err = f.RandomMultinomialWithShape(4, p, Shape{2, 3})
	assert.ErrorIs(t, err, ErrInvalidArgument, "shape element count mismatch")

	closed, err := f.Create(Shape{3})
	require.NoError(t, err)
	require.NoError(t, closed.Close())
	_, err = f.RandomMultinomial(2, closed)
	assert.ErrorIs(t, err, ErrClosed)

	out, err := f.RandomMultinomial(4, p)
	require.NoError(t, err)
	assert.Equal(t, Shape{4}, out.Shape())
	assert.Equal(t, Int32, out.DType(), "multinomial defaults to int32")
}

func TestCreatorFailureDoesNotLeak(t *testing.T) {
	f, eng := newTestFactory(t)
	eng.InvokeErr = &EngineError{Op: OpFill, Err: assert.AnError}

	_, err := f.Ones(Shape{2})
	require.Error(t, err)
	assert.Equal(t, 0, f.NumOwned(), "half-built array must be released")
	assert.Equal(t, 0, eng.Live())
}

func TestCreatorDefaults(t *testing.T) {
	f, _ := newTestFactory(t)

	z, err := f.Zeros(Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, Float32, z.DType())

	o, err := f.Ones(Shape{2}, WithDType(Float64))
	require.NoError(t, err)
	assert.Equal(t, Float64, o.DType())

	r, err := f.RandomStandardNormal(Shape{3})
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, r.Shape())
}
