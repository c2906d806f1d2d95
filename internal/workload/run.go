package workload

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ndforge/ndforge/internal/engine/fill"
	"github.com/ndforge/ndforge/internal/ndarray"
)

// Run executes one workload against a fresh root factory on the given
// engine. Every array the workload produces is owned by that factory and
// released when Run returns, so a workload can never leak native memory.
func Run(logger *zap.Logger, engine ndarray.Engine, cfg *Config) (err error) {
	ctx := ndarray.Context{Device: engine.Device()}
	if cfg.Device != "" {
		device, derr := ndarray.ParseDevice(cfg.Device)
		if derr != nil {
			return derr
		}
		ctx.Device = device
	}

	root := ndarray.NewFactory(engine, ctx)
	defer func() {
		if cerr := root.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	arrays := make(map[string]*ndarray.Array, len(cfg.Arrays))
	register := func(name string, a *ndarray.Array) error {
		if _, exists := arrays[name]; exists {
			return fmt.Errorf("duplicate array name %q", name)
		}
		arrays[name] = a
		return nil
	}

	for _, block := range cfg.Arrays {
		a, cerr := createArray(root, block)
		if cerr != nil {
			return fmt.Errorf("array %q: %w", block.Name, cerr)
		}
		if rerr := register(block.Name, a); rerr != nil {
			return rerr
		}
		logger.Info("array created",
			zap.String("name", block.Name),
			zap.String("creator", block.Creator),
			zap.Stringer("shape", a.Shape()),
			zap.Stringer("dtype", a.DType()))
	}

	for _, block := range cfg.Ops {
		src := make([]*ndarray.Array, len(block.Inputs))
		for i, name := range block.Inputs {
			a, ok := arrays[name]
			if !ok {
				return fmt.Errorf("op %q: unknown input %q", block.Name, name)
			}
			src[i] = a
		}
		params, perr := paramsList(block.Params)
		if perr != nil {
			return fmt.Errorf("op %q: %w", block.Name, perr)
		}
		out, ierr := root.Invoke(block.Operation, src, nil, params)
		if ierr != nil {
			return fmt.Errorf("op %q: %w", block.Name, ierr)
		}
		for i, a := range out {
			name := block.Name
			if len(out) > 1 {
				name = fmt.Sprintf("%s.%d", block.Name, i)
			}
			if rerr := register(name, a); rerr != nil {
				return rerr
			}
			logger.Info("op executed",
				zap.String("name", name),
				zap.String("operation", block.Operation),
				zap.Stringer("shape", a.Shape()))
		}
	}
	return nil
}

// createArray dispatches one array block to the matching factory creator.
// Shape-less creators (arange, linspace) take their dimensions from params.
func createArray(f *ndarray.Factory, block *ArrayBlock) (*ndarray.Array, error) {
	params, err := paramsList(block.Params)
	if err != nil {
		return nil, err
	}

	var opts []ndarray.Option
	if block.DType != "" {
		dtype, derr := ndarray.ParseDataType(block.DType)
		if derr != nil {
			return nil, derr
		}
		opts = append(opts, ndarray.WithDType(dtype))
	}
	shape := ndarray.Shape(block.Shape)

	switch block.Creator {
	case "zeros":
		return f.Zeros(shape, opts...)
	case "ones":
		return f.Ones(shape, opts...)
	case "full":
		value, perr := fill.FloatParam(params, "value")
		if perr != nil {
			return nil, perr
		}
		return f.Full(value, shape, opts...)
	case "arange":
		start, perr := fill.FloatParam(params, "start")
		if perr != nil {
			return nil, perr
		}
		stop, perr := fill.FloatParam(params, "stop")
		if perr != nil {
			return nil, perr
		}
		step := 1.0
		if params.Contains("step") {
			if step, perr = fill.FloatParam(params, "step"); perr != nil {
				return nil, perr
			}
		}
		return f.Arange(start, stop, step, opts...)
	case "linspace":
		start, perr := fill.FloatParam(params, "start")
		if perr != nil {
			return nil, perr
		}
		stop, perr := fill.FloatParam(params, "stop")
		if perr != nil {
			return nil, perr
		}
		num, perr := fill.IntParam(params, "num")
		if perr != nil {
			return nil, perr
		}
		endpoint := true
		if params.Contains("endpoint") {
			if endpoint, perr = fill.BoolParam(params, "endpoint"); perr != nil {
				return nil, perr
			}
		}
		return f.Linspace(start, stop, num, endpoint, opts...)
	case "random_uniform":
		low := 0.0
		high := 1.0
		var perr error
		if params.Contains("low") {
			if low, perr = fill.FloatParam(params, "low"); perr != nil {
				return nil, perr
			}
		}
		if params.Contains("high") {
			if high, perr = fill.FloatParam(params, "high"); perr != nil {
				return nil, perr
			}
		}
		return f.RandomUniform(low, high, shape, opts...)
	case "random_normal":
		loc := 0.0
		scale := 1.0
		var perr error
		if params.Contains("loc") {
			if loc, perr = fill.FloatParam(params, "loc"); perr != nil {
				return nil, perr
			}
		}
		if params.Contains("scale") {
			if scale, perr = fill.FloatParam(params, "scale"); perr != nil {
				return nil, perr
			}
		}
		return f.RandomNormal(loc, scale, shape, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown creator %q", ndarray.ErrInvalidArgument, block.Creator)
	}
}
