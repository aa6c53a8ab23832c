package executor

// Option configures a Loop. Modeled on eventloop's LoopOption /
// resolveLoopOptions: an interface wrapping a closure, nil-tolerant,
// resolved once at construction.
type Option interface {
	apply(*loopOptions)
}

type loopOptions struct {
	queueCapacity int
	logger        Logger
}

type optionFunc func(*loopOptions)

func (f optionFunc) apply(o *loopOptions) { f(o) }

// WithQueueCapacity sets the buffered task-queue capacity of every
// serializer the default Loop creates. Serializer Submits beyond capacity
// block the submitting goroutine until room is available (back-pressure),
// never drop silently.
func WithQueueCapacity(n int) Option {
	return optionFunc(func(o *loopOptions) {
		if n > 0 {
			o.queueCapacity = n
		}
	})
}

// WithLogger overrides the logger a Loop (and serializers created from it)
// reports diagnostics through; defaults to the package-level GetLogger().
func WithLogger(l Logger) Option {
	return optionFunc(func(o *loopOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

func resolveOptions(opts []Option) *loopOptions {
	cfg := &loopOptions{
		queueCapacity: 256,
		logger:        GetLogger(),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(cfg)
	}
	return cfg
}
