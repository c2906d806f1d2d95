//go:build windows

// Package webgpu implements the GPU engine on WebGPU via go-webgpu's
// zero-CGO bindings. Allocations are storage buffers tracked in a handle
// table; fill operations are rendered host-side and uploaded, element-wise
// operations run as WGSL compute shaders.
package webgpu

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/ndforge/ndforge/internal/ndarray"
)

// buffer is one live GPU allocation plus its descriptor.
type buffer struct {
	buf  *wgpu.Buffer
	desc ndarray.DataDesc
	size uint64
}

// Engine implements ndarray.Engine on a WebGPU device.
type Engine struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache, keyed by operation name.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline

	rng     *rand.Rand
	buffers map[ndarray.Handle]*buffer
	next    ndarray.Handle
	closed  bool
	mu      sync.Mutex
}

// Compile-time check against the engine boundary.
var _ ndarray.Engine = (*Engine)(nil)

// New creates a WebGPU engine.
// Returns an error if WebGPU is not available or initialization fails.
func New() (engine *Engine, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			engine = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.New("webgpu: failed to get queue")
	}

	return &Engine{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		buffers:   make(map[ndarray.Handle]*buffer),
	}, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name returns "WebGPU".
func (e *Engine) Name() string {
	return "WebGPU"
}

// Device returns the device kind this engine allocates on.
func (e *Engine) Device() ndarray.Device {
	return ndarray.WebGPU
}

// Allocate creates a zero-initialized storage buffer.
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

	size := uint64(shape.NumElements() * dtype.Size())
	buf := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})

	e.next++
	h := e.next
	e.buffers[h] = &buffer{
		buf:  buf,
		desc: ndarray.DataDesc{Context: ctx, Shape: shape.Clone(), DataType: dtype},
		size: size,
	}
	return h, nil
}

// Write uploads raw element data into a buffer through a staging copy.
func (e *Engine) Write(h ndarray.Handle, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.get("write", h)
	if err != nil {
		return err
	}
	if uint64(len(data)) != b.size {
		return fmt.Errorf("%w: write of %d bytes into allocation of %d", ndarray.ErrInvalidArgument, len(data), b.size)
	}
	return e.upload(b, data)
}

// Read copies a buffer's contents back to host memory.
func (e *Engine) Read(h ndarray.Handle) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.get("read", h)
	if err != nil {
		return nil, err
	}
	return e.readBuffer(b.buf, b.size)
}

// Describe returns the descriptor for a live allocation.
func (e *Engine) Describe(h ndarray.Handle) (ndarray.DataDesc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[h]
	if !ok {
		return ndarray.DataDesc{}, false
	}
	return b.desc, true
}

// Release frees one buffer. Unknown handles are a no-op.
func (e *Engine) Release(h ndarray.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[h]
	if !ok {
		return nil
	}
	delete(e.buffers, h)
	b.buf.Release()
	return nil
}

// Len returns the number of live allocations.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buffers)
}

// Close frees every remaining buffer, the shader and pipeline caches, and
// the WebGPU device objects. The engine accepts no allocations afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	for h, b := range e.buffers {
		b.buf.Release()
		delete(e.buffers, h)
	}
	for _, p := range e.pipelines {
		p.Release()
	}
	e.pipelines = nil
	for _, s := range e.shaders {
		s.Release()
	}
	e.shaders = nil

	if e.queue != nil {
		e.queue.Release()
		e.queue = nil
	}
	if e.device != nil {
		e.device.Release()
		e.device = nil
	}
	if e.adapter != nil {
		e.adapter.Release()
		e.adapter = nil
	}
	if e.instance != nil {
		e.instance.Release()
		e.instance = nil
	}
	return nil
}

// get looks up a live buffer; the caller holds the mutex.
func (e *Engine) get(op string, h ndarray.Handle) (*buffer, error) {
	b, ok := e.buffers[h]
	if !ok {
		return nil, &ndarray.EngineError{Op: op, Err: fmt.Errorf("unknown handle %d", h)}
	}
	return b, nil
}
