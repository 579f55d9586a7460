package worker

import (
	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to a worker or pool.
type Option func(*options)

type options struct {
	name   string
	logger logger.Logger
}

func newOptions(opts []Option) options {
	o := options{name: "worker", logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
