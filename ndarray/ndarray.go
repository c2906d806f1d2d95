// Copyright 2025 NDForge Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ndarray provides the public API for NDForge's native array
// resource management: resource handles, the factory ownership tree, and
// the engine boundary.
//
// Arrays are backed by native memory outside the Go heap, so their lifetime
// is managed explicitly. Every array is created by a Factory; factories
// nest into a tree, and closing any factory deterministically releases
// every resource it still owns, children first.
//
// Example:
//
//	eng := native.New()
//	root := ndarray.NewFactory(eng, ndarray.DefaultContext())
//	defer root.Close()
//
//	a, err := root.RandomUniform(0, 1, ndarray.Shape{2, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := root.Ones(ndarray.Shape{2, 3})
//	sum, err := root.Invoke("add", []*ndarray.Array{a, b}, nil, nil)
package ndarray

import (
	"go.uber.org/zap"

	"github.com/ndforge/ndforge/internal/ndarray"
)

// SetLogger configures the core's logger. The default is a no-op logger;
// call this before any factory operations.
func SetLogger(l *zap.Logger) {
	ndarray.SetLogger(l)
}

// Type aliases for the public API.

// Device represents the kind of compute device an array lives on.
type Device = ndarray.Device

// Device constants.
const (
	CPU    Device = ndarray.CPU
	CUDA   Device = ndarray.CUDA
	Vulkan Device = ndarray.Vulkan
	Metal  Device = ndarray.Metal
	WebGPU Device = ndarray.WebGPU
)

// Context is a placement descriptor: device kind plus device ordinal.
type Context = ndarray.Context

// Shape represents the dimensions of an array.
type Shape = ndarray.Shape

// DataType represents the element type of a native array.
type DataType = ndarray.DataType

// Data type constants. Creators default to Float32 when no type is given.
const (
	Float32 DataType = ndarray.Float32
	Float64 DataType = ndarray.Float64
	Int32   DataType = ndarray.Int32
	Int64   DataType = ndarray.Int64
	Uint8   DataType = ndarray.Uint8
	Bool    DataType = ndarray.Bool
)

// DataDesc fully describes one native allocation.
type DataDesc = ndarray.DataDesc

// Handle is an opaque reference to one native allocation inside an engine.
type Handle = ndarray.Handle

// Array is a handle to one native memory allocation plus its description.
type Array = ndarray.Array

// Factory creates arrays and owns their lifetime; factories form a tree
// with cascading close.
type Factory = ndarray.Factory

// Resource is a releasable unit a Factory can own: an *Array or a child
// *Factory.
type Resource = ndarray.Resource

// Engine is the boundary to the native array engine.
type Engine = ndarray.Engine

// EngineError reports a failure inside the native engine, carrying the
// name of the operation that failed.
type EngineError = ndarray.EngineError

// Option configures an optional creation parameter.
type Option = ndarray.Option

// Error sentinels.
var (
	ErrClosed          = ndarray.ErrClosed
	ErrInvalidArgument = ndarray.ErrInvalidArgument
)

// NewFactory creates a root factory backed by the given engine, with ctx as
// its default allocation context.
func NewFactory(engine Engine, ctx Context) *Factory {
	return ndarray.NewFactory(engine, ctx)
}

// DefaultContext returns the context used when none is supplied: CPU device 0.
func DefaultContext() Context {
	return ndarray.DefaultContext()
}

// WithContext overrides the allocation context of one creation call.
func WithContext(ctx Context) Option {
	return ndarray.WithContext(ctx)
}

// WithDType overrides the element type of one creation call.
func WithDType(dtype DataType) Option {
	return ndarray.WithDType(dtype)
}

// WithData supplies initial raw element data for one creation call.
func WithData(data []byte) Option {
	return ndarray.WithData(data)
}

// ParseDevice converts a device name, case-insensitively, into a Device.
func ParseDevice(name string) (Device, error) {
	return ndarray.ParseDevice(name)
}

// ParseDataType converts a data type name back into a DataType.
func ParseDataType(name string) (DataType, error) {
	return ndarray.ParseDataType(name)
}

// Names of the fill operations every engine supports.
const (
	OpFill              = ndarray.OpFill
	OpArange            = ndarray.OpArange
	OpLinspace          = ndarray.OpLinspace
	OpRandomUniform     = ndarray.OpRandomUniform
	OpRandomNormal      = ndarray.OpRandomNormal
	OpRandomMultinomial = ndarray.OpRandomMultinomial
)
