//go:build !windows

package main

import (
	"fmt"

	"github.com/ndforge/ndforge/engine/native"
	"github.com/ndforge/ndforge/ndarray"
)

func newEngine(name string) (ndarray.Engine, func(), error) {
	switch name {
	case "native":
		eng := native.New()
		return eng, func() { _ = eng.Close() }, nil
	case "webgpu":
		return nil, nil, fmt.Errorf("engine %q is not built on this platform", name)
	default:
		return nil, nil, fmt.Errorf("unknown engine %q", name)
	}
}

func webgpuAvailable() bool {
	return false
}
