// Package native implements a pure-Go reference engine: allocations are
// host byte buffers tracked in a handle table, and operations run on the
// CPU. It exists so the ownership layer can be exercised without any GPU
// or native library present.
package native

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ndforge/ndforge/internal/ndarray"
)

// allocation is one live native buffer plus its descriptor.
type allocation struct {
	desc ndarray.DataDesc
	data []byte
}

// Engine is a host-memory implementation of ndarray.Engine. The handle
// table is guarded by a mutex, so one Engine may back several factories;
// handle 0 is never issued.
type Engine struct {
	mu     sync.Mutex
	rng    *rand.Rand
	allocs map[ndarray.Handle]*allocation
	next   ndarray.Handle
	closed bool
}

// Compile-time check against the engine boundary.
var _ ndarray.Engine = (*Engine)(nil)

// New creates a native engine seeded from the clock.
func New() *Engine {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a native engine with a deterministic random stream.
func NewWithSeed(seed int64) *Engine {
	return &Engine{
		rng:    rand.New(rand.NewSource(seed)),
		allocs: make(map[ndarray.Handle]*allocation),
	}
}

// Name returns "Native".
func (e *Engine) Name() string {
	return "Native"
}

// Device returns the device kind this engine allocates on.
func (e *Engine) Device() ndarray.Device {
	return ndarray.CPU
}

// Allocate reserves a zero-initialized host buffer.
func (e *Engine) Allocate(ctx ndarray.Context, shape ndarray.Shape, dtype ndarray.DataType) (ndarray.Handle, error) {
	if err := shape.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ndarray.ErrInvalidArgument, err)
	}
	if !dtype.Valid() {
		return 0, fmt.Errorf("%w: unknown dtype %d", ndarray.ErrInvalidArgument, int(dtype))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, &ndarray.EngineError{Op: "allocate", Err: errors.New("engine closed")}
	}
	e.next++
	h := e.next
	e.allocs[h] = &allocation{
		desc: ndarray.DataDesc{Context: ctx, Shape: shape.Clone(), DataType: dtype},
		data: make([]byte, shape.NumElements()*dtype.Size()),
	}
	return h, nil
}

// Write copies raw element data into an allocation.
func (e *Engine) Write(h ndarray.Handle, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, err := e.get("write", h)
	if err != nil {
		return err
	}
	if len(data) != len(a.data) {
		return fmt.Errorf("%w: write of %d bytes into allocation of %d", ndarray.ErrInvalidArgument, len(data), len(a.data))
	}
	copy(a.data, data)
	return nil
}

// Read copies an allocation's contents out.
func (e *Engine) Read(h ndarray.Handle) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, err := e.get("read", h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out, nil
}

// Describe returns the descriptor for a live allocation.
func (e *Engine) Describe(h ndarray.Handle) (ndarray.DataDesc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.allocs[h]
	if !ok {
		return ndarray.DataDesc{}, false
	}
	return a.desc, true
}

// Release frees one allocation. Unknown handles are a no-op so the
// ownership layer's idempotent close never trips over a double release.
func (e *Engine) Release(h ndarray.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.allocs, h)
	return nil
}

// Len returns the number of live allocations.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.allocs)
}

// Close drains the handle table and stops accepting allocations. It is a
// leak backstop; a correctly closed ownership tree leaves the table empty.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.allocs)
	e.closed = true
	return nil
}

// get looks up a live allocation; the caller holds the mutex.
func (e *Engine) get(op string, h ndarray.Handle) (*allocation, error) {
	a, ok := e.allocs[h]
	if !ok {
		return nil, &ndarray.EngineError{Op: op, Err: fmt.Errorf("unknown handle %d", h)}
	}
	return a, nil
}
