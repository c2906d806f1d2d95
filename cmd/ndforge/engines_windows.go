//go:build windows

package main

import (
	"fmt"

	"github.com/ndforge/ndforge/engine/native"
	"github.com/ndforge/ndforge/engine/webgpu"
	"github.com/ndforge/ndforge/ndarray"
)

func newEngine(name string) (ndarray.Engine, func(), error) {
	switch name {
	case "native":
		eng := native.New()
		return eng, func() { _ = eng.Close() }, nil
	case "webgpu":
		eng, err := webgpu.New()
		if err != nil {
			return nil, nil, err
		}
		return eng, func() { _ = eng.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine %q", name)
	}
}

func webgpuAvailable() bool {
	return webgpu.IsAvailable()
}
