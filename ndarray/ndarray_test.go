package ndarray_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndforge/ndforge/engine/native"
	"github.com/ndforge/ndforge/ndarray"
)

// End-to-end check of the public API against the native engine: build a
// small ownership tree, move an array out of it, and verify the cascade
// releases exactly what it still owns.
func TestOwnershipTreeEndToEnd(t *testing.T) {
	eng := native.NewWithSeed(3)
	defer eng.Close()

	root := ndarray.NewFactory(eng, ndarray.DefaultContext())

	weights, err := root.RandomUniform(-1, 1, ndarray.Shape{4, 4})
	require.NoError(t, err)

	scratch, err := root.NewSubFactory()
	require.NoError(t, err)
	bias, err := scratch.Zeros(ndarray.Shape{4})
	require.NoError(t, err)

	// Move weights out of the tree; the caller owns it now.
	root.Detach(weights)

	require.NoError(t, root.Close())
	assert.True(t, scratch.Closed())
	assert.True(t, bias.Closed())
	assert.False(t, weights.Closed(), "detached array survives the cascade")
	assert.Equal(t, 1, eng.Len())

	require.NoError(t, weights.Close())
	assert.Equal(t, 0, eng.Len())
}

func TestParseHelpers(t *testing.T) {
	d, err := ndarray.ParseDevice("WebGPU")
	require.NoError(t, err)
	assert.Equal(t, ndarray.WebGPU, d)

	_, err = ndarray.ParseDevice("abacus")
	assert.ErrorIs(t, err, ndarray.ErrInvalidArgument)

	dt, err := ndarray.ParseDataType("int64")
	require.NoError(t, err)
	assert.Equal(t, ndarray.Int64, dt)

	_, err = ndarray.ParseDataType("complex128")
	assert.ErrorIs(t, err, ndarray.ErrInvalidArgument)
}
