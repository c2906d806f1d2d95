// Package main provides the NDForge CLI.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ndforge/ndforge/internal/workload"
	"github.com/ndforge/ndforge/ndarray"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("NDForge %s\n", version)
	case "engines":
		listEngines()
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ndforge run <workload.hcl>")
			os.Exit(2)
		}
		if err := run(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "ndforge: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "ndforge: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("NDForge - native array resource management for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version              Show version")
	fmt.Println("  engines              List available engines")
	fmt.Println("  run <workload.hcl>   Run an array workload")
}

func listEngines() {
	fmt.Println("native    always available")
	if webgpuAvailable() {
		fmt.Println("webgpu    available")
	} else {
		fmt.Println("webgpu    not available on this system")
	}
}

func run(path string) error {
	cfg, err := workload.Load(path)
	if err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ndarray.SetLogger(logger)

	name := cfg.Engine
	if name == "" {
		name = "native"
	}
	engine, cleanup, err := newEngine(name)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("running workload",
		zap.String("file", path),
		zap.String("engine", engine.Name()))
	return workload.Run(logger, engine, cfg)
}
