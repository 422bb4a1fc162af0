package sessionstore

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	Location string
	Context  context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type HistoryOption func(*HistoryOptions)

type HistoryOptions struct {
	Limit int
}

// WithHistoryLimit bounds History to the most recent n messages. The
// returned slice stays chronological.
func WithHistoryLimit(n int) HistoryOption {
	return func(o *HistoryOptions) {
		o.Limit = n
	}
}

func NewHistoryOptions(opts ...HistoryOption) HistoryOptions {
	options := HistoryOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type PendingOption func(*PendingOptions)

type PendingOptions struct {
	// Settle is how long a message must have existed before it becomes
	// eligible for embedding.
	Settle time.Duration
	Limit  int
}

func WithSettle(d time.Duration) PendingOption {
	return func(o *PendingOptions) {
		o.Settle = d
	}
}

func WithPendingLimit(n int) PendingOption {
	return func(o *PendingOptions) {
		o.Limit = n
	}
}

func NewPendingOptions(opts ...PendingOption) PendingOptions {
	options := PendingOptions{
		Limit: 1000,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
