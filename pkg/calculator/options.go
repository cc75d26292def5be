package calculator

import (
	"github.com/mandelsoft/logging"
)

type Option interface {
	ApplyTo(opts *Options)
}

type Options struct {
	Logging logging.Context
	Store   Store
	// MemoryLimit is the maximum number of values a derived dataset may
	// hold. Zero means unlimited.
	MemoryLimit int
}

func (o *Options) ApplyTo(opts *Options) {
	if o.Logging != nil {
		opts.Logging = o.Logging
	}
	if o.Store != nil {
		opts.Store = o.Store
	}
	if o.MemoryLimit != 0 {
		opts.MemoryLimit = o.MemoryLimit
	}
}

type loggingOpt struct {
	logging.Context
}

// WithLogging sets the logging context used for calculations.
func WithLogging(lctx logging.Context) Option {
	return loggingOpt{lctx}
}

func (o loggingOpt) ApplyTo(opts *Options) {
	opts.Logging = o.Context
}

type storeOpt struct {
	Store
}

// WithStore sets the persistence for derived datasets.
func WithStore(s Store) Option {
	return storeOpt{s}
}

func (o storeOpt) ApplyTo(opts *Options) {
	opts.Store = o.Store
}

type memoryLimit int

func WithMemoryLimit(n int) Option {
	return memoryLimit(n)
}

func (o memoryLimit) ApplyTo(opts *Options) {
	opts.MemoryLimit = int(o)
}
