package ndarray

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ndforge/ndforge/pairs"
)

// Resource is a releasable unit that a Factory can own: either an *Array or
// a child *Factory. The ownership set holds both uniformly.
type Resource interface {
	Close() error
}

// Factory creates arrays and owns their lifetime. Factories form a tree:
// each factory has at most one parent, and closing a factory cascades to
// every resource still in its owned set, children first, before the factory
// itself is marked closed. A resource is tracked by at most one factory at
// any time; detached resources are the caller's responsibility.
//
// A Factory is not safe for concurrent mutation. Attach, Detach, creation
// calls, Invoke, and Close on the same factory must be serialized by the
// caller; read-only accessors (Context, Parent, Engine) may be used
// concurrently with each other.
type Factory struct {
	engine Engine
	ctx    Context
	parent *Factory // nil at the tree root
	owned  map[Resource]struct{}
	closed bool
}

// Compile-time check that Factory is itself an ownable resource.
var _ Resource = (*Factory)(nil)

// NewFactory creates a root factory backed by the given engine, with ctx as
// its default allocation context.
func NewFactory(engine Engine, ctx Context) *Factory {
	return &Factory{
		engine: engine,
		ctx:    ctx,
		owned:  make(map[Resource]struct{}),
	}
}

// Context returns the factory's default allocation context.
// Valid after close.
func (f *Factory) Context() Context {
	return f.ctx
}

// Parent returns the factory's parent, or nil for a root.
// Valid after close.
func (f *Factory) Parent() *Factory {
	return f.parent
}

// Engine returns the engine this factory allocates through.
func (f *Factory) Engine() Engine {
	return f.engine
}

// Closed reports whether the factory has been closed.
func (f *Factory) Closed() bool {
	return f.closed
}

// NumOwned returns the number of resources currently tracked by this factory.
func (f *Factory) NumOwned() int {
	return len(f.owned)
}

// NewSubFactory creates a child factory owned by this one. The child
// inherits this factory's default context.
func (f *Factory) NewSubFactory() (*Factory, error) {
	return f.NewSubFactoryWithContext(f.ctx)
}

// NewSubFactoryWithContext creates a child factory with an explicit default
// context instead of the inherited one.
func (f *Factory) NewSubFactoryWithContext(ctx Context) (*Factory, error) {
	if f.closed {
		return nil, fmt.Errorf("new sub-factory: %w", ErrClosed)
	}
	child := &Factory{
		engine: f.engine,
		ctx:    ctx,
		parent: f,
		owned:  make(map[Resource]struct{}),
	}
	f.owned[child] = struct{}{}
	Logger().Debug("sub-factory created", zap.Stringer("context", ctx))
	return child, nil
}

// Create allocates a new array registered under this factory.
//
// Defaults when omitted: context is the factory's default context, dtype is
// Float32, memory is zero-initialized. WithData supplies initial raw element
// data whose length must match shape and dtype exactly.
//
// Fails with ErrInvalidArgument for a malformed shape, dtype, or initial
// data length; engine allocation failures are propagated unchanged.
func (f *Factory) Create(shape Shape, opts ...Option) (*Array, error) {
	if f.closed {
		return nil, fmt.Errorf("create: %w", ErrClosed)
	}
	cfg := f.newCreateConfig(opts)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if !cfg.dtype.Valid() {
		return nil, fmt.Errorf("%w: unknown dtype %d", ErrInvalidArgument, int(cfg.dtype))
	}
	if cfg.data != nil {
		if want := shape.NumElements() * cfg.dtype.Size(); len(cfg.data) != want {
			return nil, fmt.Errorf("%w: initial data length %d, want %d for %s of %s",
				ErrInvalidArgument, len(cfg.data), want, shape, cfg.dtype)
		}
	}

	h, err := f.engine.Allocate(cfg.ctx, shape, cfg.dtype)
	if err != nil {
		return nil, err
	}
	a := &Array{
		engine:  f.engine,
		handle:  h,
		desc:    DataDesc{Context: cfg.ctx, Shape: shape.Clone(), DataType: cfg.dtype},
		factory: f,
	}
	if cfg.data != nil {
		if err := f.engine.Write(h, cfg.data); err != nil {
			_ = f.engine.Release(h)
			return nil, err
		}
	}
	f.owned[a] = struct{}{}
	Logger().Debug("array created",
		zap.Stringer("context", cfg.ctx),
		zap.Stringer("shape", shape),
		zap.Stringer("dtype", cfg.dtype))
	return a, nil
}

// Attach moves an existing resource into this factory's owned set, removing
// it from its previous owner first; a resource is never tracked by two
// owners. Fails with ErrClosed if either this factory or the resource is
// already closed, and with ErrInvalidArgument if attaching the resource
// would break the tree (self-attach or an ownership cycle).
func (f *Factory) Attach(r Resource) error {
	if f.closed {
		return fmt.Errorf("attach: %w", ErrClosed)
	}
	switch v := r.(type) {
	case *Array:
		if v.closed {
			return fmt.Errorf("attach array: %w", ErrClosed)
		}
		if v.factory != nil {
			v.factory.Detach(v)
		}
		v.factory = f
	case *Factory:
		if v.closed {
			return fmt.Errorf("attach factory: %w", ErrClosed)
		}
		// Attaching an ancestor (or self) would create a cycle.
		for p := f; p != nil; p = p.parent {
			if p == v {
				return fmt.Errorf("%w: attach would create an ownership cycle", ErrInvalidArgument)
			}
		}
		if v.parent != nil {
			v.parent.Detach(v)
		}
		v.parent = f
	default:
		return fmt.Errorf("%w: unsupported resource type %T", ErrInvalidArgument, r)
	}
	f.owned[r] = struct{}{}
	return nil
}

// Detach removes a resource from this factory's owned set without closing
// it; the caller now owns its lifetime. Detaching a resource this factory
// does not track is a no-op, not an error: callers rely on that idempotence
// when a resource may already have been moved.
func (f *Factory) Detach(r Resource) {
	if _, ok := f.owned[r]; !ok {
		return
	}
	delete(f.owned, r)
	switch v := r.(type) {
	case *Array:
		if v.factory == f {
			v.factory = nil
		}
	case *Factory:
		if v.parent == f {
			v.parent = nil
		}
	}
}

// Invoke executes a named engine operation. Sources are read; when dest is
// nil the engine allocates the outputs, which are registered under this
// factory and returned. When dest is supplied the outputs are written in
// place and dest is returned.
//
// Unsupported operation names or parameter sets fail with
// ErrInvalidArgument; native-side failures surface as *EngineError. Both are
// propagated unchanged, never swallowed.
func (f *Factory) Invoke(op string, src, dest []*Array, params *pairs.List[string, any]) ([]*Array, error) {
	if f.closed {
		return nil, fmt.Errorf("invoke %q: %w", op, ErrClosed)
	}
	if op == "" {
		return nil, fmt.Errorf("%w: empty operation name", ErrInvalidArgument)
	}
	srcHandles, err := handlesOf(src)
	if err != nil {
		return nil, fmt.Errorf("invoke %q source: %w", op, err)
	}
	destHandles, err := handlesOf(dest)
	if err != nil {
		return nil, fmt.Errorf("invoke %q destination: %w", op, err)
	}

	out, err := f.engine.Invoke(op, srcHandles, destHandles, params)
	if err != nil {
		return nil, err
	}
	if dest != nil {
		return dest, nil
	}

	result := make([]*Array, len(out))
	for i, h := range out {
		desc, ok := f.engine.Describe(h)
		if !ok {
			return nil, &EngineError{Op: op, Err: fmt.Errorf("engine returned unknown handle %d", h)}
		}
		a := &Array{engine: f.engine, handle: h, desc: desc, factory: f}
		f.owned[a] = struct{}{}
		result[i] = a
	}
	return result, nil
}

// Close releases every resource still in the owned set: child factories
// first, each recursively, then this factory's own arrays. Each resource is
// visited exactly once (the set is drained, not iterated live), detached
// resources are never touched, and a second Close is a no-op. Errors from
// individual releases are collected and joined; the cascade always runs to
// completion.
func (f *Factory) Close() error {
	if f.closed {
		return nil
	}

	children := make([]Resource, 0, len(f.owned))
	arrays := make([]Resource, 0, len(f.owned))
	for r := range f.owned {
		if _, ok := r.(*Factory); ok {
			children = append(children, r)
		} else {
			arrays = append(arrays, r)
		}
	}
	clear(f.owned)
	drained := append(children, arrays...)

	var errs []error
	for _, r := range drained {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closed = true

	// Remove this factory from its parent's accounting without clearing
	// the parent pointer: Parent() stays readable after close.
	if f.parent != nil {
		delete(f.parent.owned, f)
	}

	Logger().Debug("factory closed", zap.Int("released", len(drained)))
	return errors.Join(errs...)
}

func handlesOf(arrays []*Array) ([]Handle, error) {
	if arrays == nil {
		return nil, nil
	}
	handles := make([]Handle, len(arrays))
	for i, a := range arrays {
		if a == nil {
			return nil, fmt.Errorf("%w: nil array at index %d", ErrInvalidArgument, i)
		}
		if a.closed {
			return nil, fmt.Errorf("array at index %d: %w", i, ErrClosed)
		}
		handles[i] = a.handle
	}
	return handles, nil
}
