//go:build windows

// Copyright 2025 NDForge Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU engine backed by WebGPU.
//
// Example:
//
//	if !webgpu.IsAvailable() {
//	    log.Fatal("no GPU")
//	}
//	eng, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	root := ndarray.NewFactory(eng, ndarray.Context{Device: ndarray.WebGPU})
//	defer root.Close()
package webgpu

import (
	internalwebgpu "github.com/ndforge/ndforge/internal/engine/webgpu"
	"github.com/ndforge/ndforge/ndarray"
)

// Engine is the WebGPU implementation of ndarray.Engine.
type Engine = internalwebgpu.Engine

// Compile-time check that Engine implements ndarray.Engine.
var _ ndarray.Engine = (*Engine)(nil)

// New creates a WebGPU engine.
// Returns an error if WebGPU is not available or initialization fails.
func New() (*Engine, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
