package ndarray

import (
	"fmt"

	"github.com/ndforge/ndforge/pairs"
)

// Verify that MockEngine implements Engine.
var _ Engine = (*MockEngine)(nil)

// MockEngine is a minimal engine for testing the ownership layer. It keeps
// allocations in host memory and counts every Release per handle, so tests
// can assert that no allocation is ever released twice.
type MockEngine struct {
	allocs   map[Handle]*mockAlloc
	Released map[Handle]int
	// ReleaseOrder records every Release call in sequence.
	ReleaseOrder []Handle
	next         Handle

	// AllocateErr, when set, makes every Allocate call fail with it.
	AllocateErr error
	// InvokeErr, when set, makes every Invoke call fail with it.
	InvokeErr error
}

type mockAlloc struct {
	desc DataDesc
	data []byte
}

// NewMockEngine creates an empty MockEngine.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		allocs:   make(map[Handle]*mockAlloc),
		Released: make(map[Handle]int),
	}
}

// Name returns the engine name.
func (m *MockEngine) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockEngine) Device() Device {
	return CPU
}

// Live returns the number of live allocations.
func (m *MockEngine) Live() int {
	return len(m.allocs)
}

// Allocate reserves a zero-filled host buffer.
func (m *MockEngine) Allocate(ctx Context, shape Shape, dtype DataType) (Handle, error) {
	if m.AllocateErr != nil {
		return 0, m.AllocateErr
	}
	m.next++
	m.allocs[m.next] = &mockAlloc{
		desc: DataDesc{Context: ctx, Shape: shape.Clone(), DataType: dtype},
		data: make([]byte, shape.NumElements()*dtype.Size()),
	}
	return m.next, nil
}

// Write copies data into an allocation.
func (m *MockEngine) Write(h Handle, data []byte) error {
	a, ok := m.allocs[h]
	if !ok {
		return &EngineError{Op: "write", Err: fmt.Errorf("unknown handle %d", h)}
	}
	copy(a.data, data)
	return nil
}

// Read copies an allocation's contents out.
func (m *MockEngine) Read(h Handle) ([]byte, error) {
	a, ok := m.allocs[h]
	if !ok {
		return nil, &EngineError{Op: "read", Err: fmt.Errorf("unknown handle %d", h)}
	}
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out, nil
}

// Describe returns the descriptor for a live allocation.
func (m *MockEngine) Describe(h Handle) (DataDesc, bool) {
	a, ok := m.allocs[h]
	if !ok {
		return DataDesc{}, false
	}
	return a.desc, true
}

// Invoke pretends to run any operation: fill operations succeed without
// touching memory, and when dest is empty one output is allocated with the
// first source's descriptor.
func (m *MockEngine) Invoke(op string, src, dest []Handle, params *pairs.List[string, any]) ([]Handle, error) {
	if m.InvokeErr != nil {
		return nil, m.InvokeErr
	}
	if len(dest) > 0 {
		return dest, nil
	}
	desc := DataDesc{Shape: Shape{1}, DataType: Float32}
	if len(src) > 0 {
		if d, ok := m.allocs[src[0]]; ok {
			desc = d.desc
		}
	}
	h, err := m.Allocate(desc.Context, desc.Shape, desc.DataType)
	if err != nil {
		return nil, err
	}
	return []Handle{h}, nil
}

// Release frees an allocation and records the call, double or not.
func (m *MockEngine) Release(h Handle) error {
	m.Released[h]++
	m.ReleaseOrder = append(m.ReleaseOrder, h)
	delete(m.allocs, h)
	return nil
}
