package server

import "context"

type Option func(o *Options)

type Options struct {
	Name    string
	Version string
	Address string
	Context context.Context
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithVersion(version string) Option {
	return func(o *Options) {
		o.Version = version
	}
}

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Name:    "recall",
		Version: "0.1.0",
		Address: ":8000",
		Context: context.Background(),
	}

	for _, fn := range opts {
		fn(&options)
	}

	return options
}
