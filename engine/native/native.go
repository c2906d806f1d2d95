// Copyright 2025 NDForge Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package native provides the pure-Go reference engine. Allocations live in
// host memory and all operations run on the CPU, so it works everywhere and
// needs no native libraries.
//
// Example:
//
//	eng := native.New()
//	defer eng.Close()
//
//	root := ndarray.NewFactory(eng, ndarray.DefaultContext())
//	defer root.Close()
package native

import (
	internalnative "github.com/ndforge/ndforge/internal/engine/native"
	"github.com/ndforge/ndforge/ndarray"
)

// Engine is the host-memory implementation of ndarray.Engine.
type Engine = internalnative.Engine

// Compile-time check that Engine implements ndarray.Engine.
var _ ndarray.Engine = (*Engine)(nil)

// New creates a native engine seeded from the clock.
func New() *Engine {
	return internalnative.New()
}

// NewWithSeed creates a native engine with a deterministic random stream.
func NewWithSeed(seed int64) *Engine {
	return internalnative.NewWithSeed(seed)
}
