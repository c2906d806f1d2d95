package ndarray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T) (*Factory, *MockEngine) {
	t.Helper()
	eng := NewMockEngine()
	return NewFactory(eng, DefaultContext()), eng
}

func TestCreateRegistersArray(t *testing.T) {
	f, eng := newTestFactory(t)

	a, err := f.Create(Shape{2, 3})
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, a.Shape())
	assert.Equal(t, Float32, a.DType(), "dtype defaults to float32")
	assert.Equal(t, DefaultContext(), a.Context(), "context defaults to the factory's")
	assert.Equal(t, 1, f.NumOwned())
	assert.Equal(t, 1, eng.Live())
}

func TestCreateOptions(t *testing.T) {
	f, _ := newTestFactory(t)

	ctx := Context{Device: WebGPU, DeviceID: 1}
	a, err := f.Create(Shape{4}, WithContext(ctx), WithDType(Int64))
	require.NoError(t, err)
	assert.Equal(t, ctx, a.Context())
	assert.Equal(t, Int64, a.DType())

	data := []byte{1, 2, 3, 4}
	b, err := f.Create(Shape{4}, WithDType(Uint8), WithData(data))
	require.NoError(t, err)
	got, err := b.Data()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCreateInvalidArguments(t *testing.T) {
	f, _ := newTestFactory(t)

	_, err := f.Create(Shape{2, -1})
	assert.ErrorIs(t, err, ErrInvalidArgument, "negative dimension")

	_, err = f.Create(Shape{2}, WithDType(DataType(99)))
	assert.ErrorIs(t, err, ErrInvalidArgument, "unknown dtype")

	_, err = f.Create(Shape{2}, WithData([]byte{1}))
	assert.ErrorIs(t, err, ErrInvalidArgument, "short initial data")

	assert.Equal(t, 0, f.NumOwned(), "failed creates must not register anything")
}

func TestCreateEngineFailurePropagated(t *testing.T) {
	f, eng := newTestFactory(t)
	engErr := &EngineError{Op: "allocate", Err: errors.New("out of memory")}
	eng.AllocateErr = engErr

	_, err := f.Create(Shape{2})
	var got *EngineError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "allocate", got.Op)
}

// Spec scenario: R.create -> H, child = R.newSubFactory, child.create -> H2,
// R.close closes child first (cascading to H2) then releases H, and any
// further operation on child, H, or H2 fails.
func TestCloseCascadesDepthFirst(t *testing.T) {
	root, eng := newTestFactory(t)

	h, err := root.Create(Shape{2, 3})
	require.NoError(t, err)

	child, err := root.NewSubFactory()
	require.NoError(t, err)
	assert.Same(t, root, child.Parent())
	assert.Equal(t, root.Context(), child.Context(), "child inherits default context")

	h2, err := child.Create(Shape{1})
	require.NoError(t, err)

	require.NoError(t, root.Close())

	assert.True(t, root.Closed())
	assert.True(t, child.Closed())
	assert.True(t, h.Closed())
	assert.True(t, h2.Closed())
	assert.Equal(t, 0, eng.Live(), "all native memory released")
	for handle, n := range eng.Released {
		assert.Equal(t, 1, n, "handle %d released more than once", handle)
	}

	_, err = child.Create(Shape{1})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Data()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h2.Data()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseReleasesChildSubtreesBeforeOwnArrays(t *testing.T) {
	root, eng := newTestFactory(t)

	a1, err := root.Create(Shape{2})
	require.NoError(t, err)

	childA, err := root.NewSubFactory()
	require.NoError(t, err)
	ca, err := childA.Create(Shape{2})
	require.NoError(t, err)

	a2, err := root.Create(Shape{2})
	require.NoError(t, err)

	childB, err := root.NewSubFactory()
	require.NoError(t, err)
	cb, err := childB.Create(Shape{2})
	require.NoError(t, err)

	require.NoError(t, root.Close())

	pos := make(map[Handle]int, len(eng.ReleaseOrder))
	for i, h := range eng.ReleaseOrder {
		pos[h] = i
	}
	for _, childHandle := range []Handle{ca.Handle(), cb.Handle()} {
		for _, rootHandle := range []Handle{a1.Handle(), a2.Handle()} {
			assert.Less(t, pos[childHandle], pos[rootHandle],
				"child subtree handles release before the parent's own arrays")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	root, eng := newTestFactory(t)
	_, err := root.Create(Shape{2})
	require.NoError(t, err)

	require.NoError(t, root.Close())
	require.NoError(t, root.Close(), "second close is a no-op")

	for handle, n := range eng.Released {
		assert.Equal(t, 1, n, "handle %d double-freed", handle)
	}
}

func TestArrayCloseIsIdempotent(t *testing.T) {
	root, eng := newTestFactory(t)
	a, err := root.Create(Shape{2})
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, 1, eng.Released[a.Handle()])
	assert.Equal(t, 0, root.NumOwned(), "closing an array removes it from its owner")
}

// Spec scenario: detach then close must not release the detached resource;
// closing the new owner (or the caller) must.
func TestDetachSurvivesOwnerClose(t *testing.T) {
	root, eng := newTestFactory(t)
	a, err := root.Create(Shape{2})
	require.NoError(t, err)

	root.Detach(a)
	assert.Equal(t, 0, root.NumOwned())

	require.NoError(t, root.Close())
	assert.False(t, a.Closed(), "detached array must survive the owner's close")
	assert.Equal(t, 1, eng.Live())

	require.NoError(t, a.Close())
	assert.Equal(t, 0, eng.Live())
	assert.Equal(t, 1, eng.Released[a.Handle()])
}

func TestDetachUntrackedIsNoOp(t *testing.T) {
	rootA, _ := newTestFactory(t)
	rootB := NewFactory(NewMockEngine(), DefaultContext())

	a, err := rootA.Create(Shape{2})
	require.NoError(t, err)

	rootB.Detach(a) // not tracked by rootB
	assert.Equal(t, 1, rootA.NumOwned(), "detach by a non-owner must not steal")

	rootA.Detach(a)
	rootA.Detach(a) // second detach is a no-op too
	assert.Equal(t, 0, rootA.NumOwned())
	require.NoError(t, a.Close())
}

func TestAttachTransfersOwnership(t *testing.T) {
	eng := NewMockEngine()
	a := NewFactory(eng, DefaultContext())
	b := NewFactory(eng, DefaultContext())

	arr, err := a.Create(Shape{2})
	require.NoError(t, err)

	require.NoError(t, b.Attach(arr))
	assert.Equal(t, 0, a.NumOwned(), "attach removes from the previous owner")
	assert.Equal(t, 1, b.NumOwned())

	// Closing the previous owner must not touch the moved array.
	require.NoError(t, a.Close())
	assert.False(t, arr.Closed())

	require.NoError(t, b.Close())
	assert.True(t, arr.Closed())
	assert.Equal(t, 1, eng.Released[arr.Handle()])
}

func TestAttachDetachedArray(t *testing.T) {
	root, _ := newTestFactory(t)
	a, err := root.Create(Shape{2})
	require.NoError(t, err)
	root.Detach(a)

	require.NoError(t, root.Attach(a))
	assert.Equal(t, 1, root.NumOwned())
}

func TestAttachClosedResourceFails(t *testing.T) {
	root, _ := newTestFactory(t)
	a, err := root.Create(Shape{2})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	err = root.Attach(a)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAttachSubFactoryReparents(t *testing.T) {
	eng := NewMockEngine()
	a := NewFactory(eng, DefaultContext())
	b := NewFactory(eng, DefaultContext())

	child, err := a.NewSubFactory()
	require.NoError(t, err)

	require.NoError(t, b.Attach(child))
	assert.Same(t, b, child.Parent())
	assert.Equal(t, 0, a.NumOwned())
	assert.Equal(t, 1, b.NumOwned())
}

func TestAttachCycleRejected(t *testing.T) {
	root, _ := newTestFactory(t)
	child, err := root.NewSubFactory()
	require.NoError(t, err)
	grandchild, err := child.NewSubFactory()
	require.NoError(t, err)

	err = grandchild.Attach(root)
	assert.ErrorIs(t, err, ErrInvalidArgument, "attaching an ancestor creates a cycle")

	err = child.Attach(child)
	assert.ErrorIs(t, err, ErrInvalidArgument, "self-attach")
}

func TestMutatingCallsOnClosedFactoryFail(t *testing.T) {
	root, _ := newTestFactory(t)
	other, _ := newTestFactory(t)
	a, err := other.Create(Shape{2})
	require.NoError(t, err)

	ctx := root.Context()
	parent := root.Parent()
	require.NoError(t, root.Close())

	_, err = root.Create(Shape{2})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = root.Zeros(Shape{2})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = root.Arange(0, 4, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = root.NewSubFactory()
	assert.ErrorIs(t, err, ErrClosed)
	err = root.Attach(a)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = root.Invoke("add", nil, nil, nil)
	assert.ErrorIs(t, err, ErrClosed)

	// Read-only accessors stay valid after close.
	assert.Equal(t, ctx, root.Context())
	assert.Equal(t, parent, root.Parent())
}

func TestInvokeRegistersOutputs(t *testing.T) {
	root, _ := newTestFactory(t)
	a, err := root.Create(Shape{2, 2})
	require.NoError(t, err)
	b, err := root.Create(Shape{2, 2})
	require.NoError(t, err)

	out, err := root.Invoke("add", []*Array{a, b}, nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, Shape{2, 2}, out[0].Shape())
	assert.Equal(t, 3, root.NumOwned(), "output registered under the factory")

	require.NoError(t, root.Close())
	assert.True(t, out[0].Closed())
}

func TestInvokeWithDestination(t *testing.T) {
	root, _ := newTestFactory(t)
	a, err := root.Create(Shape{2})
	require.NoError(t, err)
	b, err := root.Create(Shape{2})
	require.NoError(t, err)
	dst, err := root.Create(Shape{2})
	require.NoError(t, err)

	out, err := root.Invoke("add", []*Array{a, b}, []*Array{dst}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Same(t, dst, out[0], "destination returned, nothing new registered")
	assert.Equal(t, 3, root.NumOwned())
}

func TestInvokeErrors(t *testing.T) {
	root, eng := newTestFactory(t)
	a, err := root.Create(Shape{2})
	require.NoError(t, err)

	_, err = root.Invoke("", []*Array{a}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument, "empty operation name")

	closed, err := root.Create(Shape{2})
	require.NoError(t, err)
	require.NoError(t, closed.Close())
	_, err = root.Invoke("add", []*Array{a, closed}, nil, nil)
	assert.ErrorIs(t, err, ErrClosed, "closed source array")

	engErr := &EngineError{Op: "add", Err: errors.New("boom")}
	eng.InvokeErr = engErr
	_, err = root.Invoke("add", []*Array{a}, nil, nil)
	var got *EngineError
	require.ErrorAs(t, err, &got, "engine failures surface unchanged")
	assert.Equal(t, "add", got.Op)
}

func TestNestedTreeReleasesExactlyOnce(t *testing.T) {
	root, eng := newTestFactory(t)

	// Three levels with arrays at each level.
	var arrays []*Array
	f := root
	for depth := 0; depth < 3; depth++ {
		a, err := f.Create(Shape{2})
		require.NoError(t, err)
		arrays = append(arrays, a)
		child, err := f.NewSubFactory()
		require.NoError(t, err)
		f = child
	}

	require.NoError(t, root.Close())

	assert.Equal(t, 0, eng.Live())
	for _, a := range arrays {
		assert.True(t, a.Closed())
		assert.Equal(t, 1, eng.Released[a.Handle()])
	}
}

func TestSubFactoryCloseDetachesFromParent(t *testing.T) {
	root, _ := newTestFactory(t)
	child, err := root.NewSubFactory()
	require.NoError(t, err)
	require.Equal(t, 1, root.NumOwned())

	require.NoError(t, child.Close())
	assert.Equal(t, 0, root.NumOwned(), "closed child removed from parent accounting")
	assert.Same(t, root, child.Parent(), "parent pointer stays readable")

	require.NoError(t, root.Close())
}

func TestNewSubFactoryWithContext(t *testing.T) {
	root, _ := newTestFactory(t)
	ctx := Context{Device: CUDA, DeviceID: 2}
	child, err := root.NewSubFactoryWithContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, ctx, child.Context())

	a, err := child.Create(Shape{1})
	require.NoError(t, err)
	assert.Equal(t, ctx, a.Context(), "arrays inherit the child's context")
}
