package semanticindex

import (
	"context"

	"github.com/w-h-a/recall/embedder"
)

type Option func(*Options)

type Options struct {
	Location   string
	ApiKey     string
	Collection string
	VectorSize int
	Distance   string
	Embedder   embedder.Embedder
	Context    context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithCollection(name string) Option {
	return func(o *Options) {
		o.Collection = name
	}
}

func WithVectorSize(size int) Option {
	return func(o *Options) {
		o.VectorSize = size
	}
}

func WithDistance(distance string) Option {
	return func(o *Options) {
		o.Distance = distance
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Collection: "conversation-memory",
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type QueryOption func(*QueryOptions)

type QueryOptions struct {
	// SessionFilter scopes matches to one session. Empty means global.
	SessionFilter string
}

func WithSessionFilter(sessionId string) QueryOption {
	return func(o *QueryOptions) {
		o.SessionFilter = sessionId
	}
}

func NewQueryOptions(opts ...QueryOption) QueryOptions {
	options := QueryOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
