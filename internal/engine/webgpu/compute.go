//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/ndforge/ndforge/internal/engine/fill"
	"github.com/ndforge/ndforge/internal/ndarray"
	"github.com/ndforge/ndforge/pairs"
)

// Invoke executes a named operation. Fill operations are rendered host-side
// and uploaded; the element-wise operations run as WGSL compute shaders.
func (e *Engine) Invoke(op string, src, dest []ndarray.Handle, params *pairs.List[string, any]) ([]ndarray.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch op {
	case ndarray.OpFill, ndarray.OpArange, ndarray.OpLinspace,
		ndarray.OpRandomUniform, ndarray.OpRandomNormal:
		return e.runFill(op, src, dest, params)
	case ndarray.OpRandomMultinomial:
		return e.runMultinomial(op, src, dest, params)
	case "add", "sub", "mul", "div":
		return e.runBinaryOp(op, src, dest)
	default:
		return nil, fmt.Errorf("%w: unsupported operation %q", ndarray.ErrInvalidArgument, op)
	}
}

func (e *Engine) runFill(op string, src, dest []ndarray.Handle, params *pairs.List[string, any]) ([]ndarray.Handle, error) {
	if len(src) != 0 || len(dest) != 1 {
		return nil, fmt.Errorf("%w: %s takes no sources and one destination", ndarray.ErrInvalidArgument, op)
	}
	b, err := e.get(op, dest[0])
	if err != nil {
		return nil, err
	}
	data, err := fill.Render(e.rng, b.desc, op, params)
	if err != nil {
		return nil, err
	}
	if err := e.upload(b, data); err != nil {
		return nil, err
	}
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

	pData, err := e.readBuffer(p.buf, p.size)
	if err != nil {
		return nil, err
	}
	probs, err := fill.DecodeFloats(p.desc, pData)
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
	if uint64(len(data)) != out.size {
		return nil, fmt.Errorf("%w: destination holds %d bytes, want %d", ndarray.ErrInvalidArgument, out.size, len(data))
	}
	if err := e.upload(out, data); err != nil {
		return nil, err
	}
	return dest, nil
}

// runBinaryOp executes a binary element-wise operation (add, sub, mul, div)
// on the GPU. When dest is empty, the output buffer is allocated here.
func (e *Engine) runBinaryOp(op string, src, dest []ndarray.Handle) ([]ndarray.Handle, error) {
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
	if a.desc.DataType != ndarray.Float32 || b.desc.DataType != ndarray.Float32 {
		return nil, fmt.Errorf("%w: %s supports float32 only on this engine", ndarray.ErrInvalidArgument, op)
	}
	if !a.desc.Shape.Equal(b.desc.Shape) {
		return nil, fmt.Errorf("%w: %s shape mismatch: %s vs %s", ndarray.ErrInvalidArgument, op, a.desc.Shape, b.desc.Shape)
	}

	var out *buffer
	switch len(dest) {
	case 0:
		out = &buffer{
			buf: e.device.CreateBuffer(&wgpu.BufferDescriptor{
				Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
				Size:  a.size,
			}),
			desc: ndarray.DataDesc{Context: a.desc.Context, Shape: a.desc.Shape.Clone(), DataType: a.desc.DataType},
			size: a.size,
		}
		e.next++
		e.buffers[e.next] = out
		dest = []ndarray.Handle{e.next}
	case 1:
		out, err = e.get(op, dest[0])
		if err != nil {
			return nil, err
		}
		if out.size != a.size || out.desc.DataType != a.desc.DataType {
			return nil, fmt.Errorf("%w: %s destination does not match sources", ndarray.ErrInvalidArgument, op)
		}
	default:
		return nil, fmt.Errorf("%w: %s takes at most one destination, got %d", ndarray.ErrInvalidArgument, op, len(dest))
	}

	shader := e.compileShader(op, binaryShaders[op])
	pipeline := e.getOrCreatePipeline(op, shader)

	numElements := a.desc.Shape.NumElements()
	uniform := make([]byte, 16) // 16-byte aligned
	binary.LittleEndian.PutUint32(uniform[0:4], uint32(numElements))
	bufferParams := e.createUniformBuffer(uniform)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := e.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, a.buf, 0, a.size),
		wgpu.BufferBindingEntry(1, b.buf, 0, b.size),
		wgpu.BufferBindingEntry(2, out.buf, 0, out.size),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := e.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	e.queue.Submit(cmdBuffer)

	return dest, nil
}

// compileShader compiles WGSL shader code, caching by operation name.
func (e *Engine) compileShader(name, code string) *wgpu.ShaderModule {
	if shader, exists := e.shaders[name]; exists {
		return shader
	}
	shader := e.device.CreateShaderModuleWGSL(code)
	e.shaders[name] = shader
	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (e *Engine) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	if pipeline, exists := e.pipelines[name]; exists {
		return pipeline
	}
	// Auto layout (nil layout).
	pipeline := e.device.CreateComputePipelineSimple(nil, shader, "main")
	e.pipelines[name] = pipeline
	return pipeline
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (e *Engine) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buf := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buf.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buf.Unmap()
	return buf
}

// upload copies host data into a storage buffer through a mapped staging
// buffer, since storage buffers cannot be mapped directly.
func (e *Engine) upload(b *buffer, data []byte) error {
	size := uint64(len(data))
	staging := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	defer staging.Release()

	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	staging.Unmap()

	encoder := e.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, b.buf, 0, size)
	cmdBuffer := encoder.Finish(nil)
	e.queue.Submit(cmdBuffer)
	return nil
}

// readBuffer reads data back from a GPU buffer through a staging buffer.
func (e *Engine) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := e.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	e.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(e.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, &ndarray.EngineError{Op: "read", Err: fmt.Errorf("map staging buffer: %w", err)}
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}
