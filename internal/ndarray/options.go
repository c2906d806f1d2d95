package ndarray

// createConfig collects the optional parameters of Create and the
// convenience creators. Every omittable parameter has one documented
// default, applied in newCreateConfig.
type createConfig struct {
	ctx   Context
	dtype DataType
	data  []byte
}

// Option configures a single optional creation parameter.
type Option func(*createConfig)

// WithContext overrides the allocation context.
// Default: the factory's own default context.
func WithContext(ctx Context) Option {
	return func(c *createConfig) {
		c.ctx = ctx
	}
}

// WithDType overrides the element type.
// Default: Float32.
func WithDType(dtype DataType) Option {
	return func(c *createConfig) {
		c.dtype = dtype
	}
}

// WithData supplies initial raw element data. Its length must match the
// shape and dtype of the allocation exactly.
// Default: zero-initialized memory.
func WithData(data []byte) Option {
	return func(c *createConfig) {
		c.data = data
	}
}

func (f *Factory) newCreateConfig(opts []Option) createConfig {
	cfg := createConfig{
		ctx:   f.ctx,
		dtype: DefaultDataType,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
